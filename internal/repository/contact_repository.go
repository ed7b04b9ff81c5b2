package repository

import (
	"context"      // context carries request deadlines into DB calls
	"database/sql" // sql provides generic database operations
	"errors"       // errors matches sql.ErrNoRows
	"strings"      // strings joins dynamic SQL fragments
	"time"         // time computes the birthday window

	"github.com/iliyamo/contacts-api/internal/model"
)

// ContactRepo encapsulates all queries on the contacts table.  Every query
// filters on user_id.
type ContactRepo struct {
	db  *sql.DB
	now func() time.Time // clock for the birthday window
}

// NewContactRepo constructs a ContactRepo.  A nil clock means time.Now.
func NewContactRepo(db *sql.DB, now func() time.Time) *ContactRepo {
	if now == nil {
		now = time.Now
	}
	return &ContactRepo{db: db, now: now}
}

const contactColumns = "id, user_id, name, surname, email, phone, birthday, description, created_at, updated_at"

// List returns a page of the user's contacts ordered by id.
func (r *ContactRepo) List(ctx context.Context, userID uint64, limit, offset int) ([]model.Contact, error) {
	const q = "SELECT " + contactColumns + " FROM contacts WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?"
	return r.query(ctx, q, userID, limit, offset)
}

// Get fetches one contact owned by userID.
func (r *ContactRepo) Get(ctx context.Context, userID, id uint64) (model.Contact, error) {
	const q = "SELECT " + contactColumns + " FROM contacts WHERE id = ? AND user_id = ?"
	c, err := scanContact(r.db.QueryRowContext(ctx, q, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Contact{}, ErrContactNotFound
	}
	return c, err
}

// Create inserts a contact for userID and returns the stored row.
func (r *ContactRepo) Create(ctx context.Context, userID uint64, in model.ContactInput) (model.Contact, error) {
	const q = `INSERT INTO contacts (user_id, name, surname, email, phone, birthday, description)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	var birthday model.Date
	if in.Birthday != nil {
		birthday = *in.Birthday
	}
	res, err := r.db.ExecContext(ctx, q, userID, in.Name, in.Surname, in.Email, in.Phone, birthday, in.Description)
	if err != nil {
		return model.Contact{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Contact{}, err
	}
	return r.Get(ctx, userID, uint64(id))
}

// Update applies the non-nil fields of patch to a contact owned by userID
// and returns the updated row.
func (r *ContactRepo) Update(ctx context.Context, userID, id uint64, patch model.ContactPatch) (model.Contact, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Surname != nil {
		add("surname", *patch.Surname)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.Phone != nil {
		add("phone", *patch.Phone)
	}
	if patch.Birthday != nil {
		add("birthday", *patch.Birthday)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if len(sets) == 0 {
		return r.Get(ctx, userID, id)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	q := "UPDATE contacts SET " + strings.Join(sets, ", ") + " WHERE id = ? AND user_id = ?"
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return model.Contact{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Contact{}, ErrContactNotFound
	}
	return r.Get(ctx, userID, id)
}

// Delete removes a contact owned by userID.
func (r *ContactRepo) Delete(ctx context.Context, userID, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrContactNotFound
	}
	return nil
}

// Search returns the user's contacts matching every non-nil filter exactly.
func (r *ContactRepo) Search(ctx context.Context, userID uint64, f model.ContactSearch) ([]model.Contact, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if f.Name != nil {
		where = append(where, "name = ?")
		args = append(args, *f.Name)
	}
	if f.Surname != nil {
		where = append(where, "surname = ?")
		args = append(args, *f.Surname)
	}
	if f.Email != nil {
		where = append(where, "email = ?")
		args = append(args, *f.Email)
	}
	q := "SELECT " + contactColumns + " FROM contacts WHERE " + strings.Join(where, " AND ") + " ORDER BY id"
	return r.query(ctx, q, args...)
}

// UpcomingBirthdays returns contacts whose birthday falls on today or one of
// the following days-1 days, comparing month and day only.
func (r *ContactRepo) UpcomingBirthdays(ctx context.Context, userID uint64, days, limit, offset int) ([]model.Contact, error) {
	window := BirthdayWindow(r.now(), days)
	if len(window) == 0 {
		return []model.Contact{}, nil
	}
	conds := make([]string, 0, len(window))
	args := []any{userID}
	for _, md := range window {
		conds = append(conds, "(MONTH(birthday) = ? AND DAY(birthday) = ?)")
		args = append(args, int(md.Month), md.Day)
	}
	q := "SELECT " + contactColumns + " FROM contacts WHERE user_id = ? AND (" +
		strings.Join(conds, " OR ") + ") ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	return r.query(ctx, q, args...)
}

// MonthDay is a day of the year without the year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// BirthdayWindow lists the (month, day) pairs of today and the next days-1
// calendar days, crossing month and year boundaries.
func BirthdayWindow(today time.Time, days int) []MonthDay {
	if days <= 0 {
		return nil
	}
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]MonthDay, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		out = append(out, MonthDay{Month: d.Month(), Day: d.Day()})
	}
	return out
}

func (r *ContactRepo) query(ctx context.Context, q string, args ...any) ([]model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanContact(row rowScanner) (model.Contact, error) {
	var (
		c    model.Contact
		desc sql.NullString
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Surname, &c.Email, &c.Phone,
		&c.Birthday, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return model.Contact{}, err
	}
	if desc.Valid {
		c.Description = &desc.String
	}
	return c, nil
}
