package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of Date.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, used for birthdays.  It
// marshals as "YYYY-MM-DD" and also accepts RFC 3339 timestamps on input.
type Date struct{ time.Time }

// NewDate truncates y/m/d to a Date in UTC.
func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as a "YYYY-MM-DD" string, which MySQL accepts for
// DATE columns.
func (d Date) Value() (driver.Value, error) { return d.String(), nil }

// Scan reads DATE columns whether the driver returns time.Time
// (parseTime=true) or raw bytes.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

// Contact is a row of the `contacts` table.  Every contact belongs to
// exactly one user; UserID is never exposed.
type Contact struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"-"`
	Name        string    `json:"name"`
	Surname     string    `json:"surname"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Birthday    Date      `json:"birthday"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContactInput carries the fields of a new contact.
type ContactInput struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Surname     string  `json:"surname" validate:"required,max=100"`
	Email       string  `json:"email" validate:"required,email,max=50"`
	Phone       string  `json:"phone" validate:"required,max=15"`
	Birthday    *Date   `json:"birthday" validate:"required"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// ContactPatch is a partial update.  A nil field is left untouched, so a
// field cannot be cleared to empty through a patch.
type ContactPatch struct {
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Surname     *string `json:"surname" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email,max=50"`
	Phone       *string `json:"phone" validate:"omitempty,max=15"`
	Birthday    *Date   `json:"birthday"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// Empty reports whether the patch changes nothing.
func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Surname == nil && p.Email == nil &&
		p.Phone == nil && p.Birthday == nil && p.Description == nil
}

// ContactSearch holds equality filters; nil filters are ignored and the rest
// are combined with AND.
type ContactSearch struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Email   *string `json:"email"`
}
