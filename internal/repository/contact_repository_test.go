package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/model"
)

var contactCols = []string{"id", "user_id", "name", "surname", "email", "phone", "birthday", "description", "created_at", "updated_at"}

const selectContact = `(?s)^SELECT id, user_id, name, surname, email, phone, birthday, description, created_at, updated_at FROM contacts WHERE id = \? AND user_id = \?$`

func strPtr(s string) *string { return &s }

func contactRow(rows *sqlmock.Rows, id, userID uint64, name string, birthday time.Time) *sqlmock.Rows {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(id, userID, name, "Doe", name+"@example.com", "555-0100", birthday, nil, now, now)
}

func TestContactRepo_List_ScopedToUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepo(db, nil)

	rows := contactRow(sqlmock.NewRows(contactCols), 1, 10, "ann", time.Date(1990, 3, 4, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery(`FROM contacts WHERE user_id = \? ORDER BY id LIMIT \? OFFSET \?`).
		WithArgs(uint64(10), 10, 0).
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), 10, 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ann", out[0].Name)
	assert.Equal(t, "1990-03-04", out[0].Birthday.String())
	assert.Nil(t, out[0].Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepo_Get_OtherUsersContactIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepo(db, nil)

	mock.ExpectQuery(selectContact).
		WithArgs(uint64(1), uint64(20)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 20, 1)
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepo(db, nil)
	bd := model.NewDate(1985, time.July, 9)

	mock.ExpectExec(`INSERT INTO contacts \(user_id, name, surname, email, phone, birthday, description\)`).
		WithArgs(uint64(10), "ann", "Doe", "ann@example.com", "555-0100", "1985-07-09", "friend").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(selectContact).
		WithArgs(uint64(42), uint64(10)).
		WillReturnRows(contactRow(sqlmock.NewRows(contactCols), 42, 10, "ann", bd.Time))

	c, err := repo.Create(context.Background(), 10, model.ContactInput{
		Name: "ann", Surname: "Doe", Email: "ann@example.com", Phone: "555-0100",
		Birthday: &bd, Description: strPtr("friend"),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), c.ID)
	assert.Equal(t, uint64(10), c.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepo_Update_OnlyPresentFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepo(db, nil)

	mock.ExpectExec(`(?s)^UPDATE contacts SET phone = \?, updated_at = CURRENT_TIMESTAMP WHERE id = \? AND user_id = \?$`).
		WithArgs("555-9999", uint64(3), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectContact).
		WithArgs(uint64(3), uint64(10)).
		WillReturnRows(contactRow(sqlmock.NewRows(contactCols), 3, 10, "ann", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err := repo.Update(context.Background(), 10, 3, model.ContactPatch{Phone: strPtr("555-9999")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepo_Update_OtherUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepo(db, nil)

	mock.ExpectExec(`UPDATE contacts SET name = \?`).
		WithArgs("x", uint64(3), uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), 99, 3, model.ContactPatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestContactRepo_Update_EmptyPatchReadsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepo(db, nil)

	mock.ExpectQuery(selectContact).
		WithArgs(uint64(3), uint64(10)).
		WillReturnRows(contactRow(sqlmock.NewRows(contactCols), 3, 10, "ann", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)))

	c, err := repo.Update(context.Background(), 10, 3, model.ContactPatch{})
	require.NoError(t, err)
	assert.Equal(t, "ann", c.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepo(db, nil)

	mock.ExpectExec(`DELETE FROM contacts WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(3), uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM contacts WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(3), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 10, 3))
	assert.ErrorIs(t, repo.Delete(context.Background(), 11, 3), ErrContactNotFound)
}

func TestContactRepo_Search(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepo(db, nil)

	mock.ExpectQuery(`(?s)FROM contacts WHERE user_id = \? AND name = \? AND email = \? ORDER BY id$`).
		WithArgs(uint64(10), "ann", "ann@example.com").
		WillReturnRows(sqlmock.NewRows(contactCols))

	out, err := repo.Search(context.Background(), 10, model.ContactSearch{
		Name: strPtr("ann"), Email: strPtr("ann@example.com"),
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepo_UpcomingBirthdays_CrossesYear(t *testing.T) {
	db, mock := newMockDB(t)
	clock := func() time.Time { return time.Date(2024, time.December, 29, 15, 0, 0, 0, time.UTC) }
	repo := NewContactRepo(db, clock)

	args := []driver.Value{uint64(10)}
	for _, md := range [][2]int{{12, 29}, {12, 30}, {12, 31}, {1, 1}, {1, 2}, {1, 3}, {1, 4}} {
		args = append(args, md[0], md[1])
	}
	args = append(args, 10, 0)

	rows := contactRow(sqlmock.NewRows(contactCols), 5, 10, "newyear", time.Date(1992, 1, 3, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery(`(?s)WHERE user_id = \? AND \(\(MONTH\(birthday\) = \? AND DAY\(birthday\) = \?\)( OR \(MONTH\(birthday\) = \? AND DAY\(birthday\) = \?\)){6}\) ORDER BY id LIMIT \? OFFSET \?`).
		WithArgs(args...).
		WillReturnRows(rows)

	out, err := repo.UpcomingBirthdays(context.Background(), 10, 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "newyear", out[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBirthdayWindow(t *testing.T) {
	got := BirthdayWindow(time.Date(2024, time.December, 29, 23, 59, 0, 0, time.UTC), 7)
	require.Len(t, got, 7)
	assert.Equal(t, MonthDay{time.December, 29}, got[0])
	assert.Contains(t, got, MonthDay{time.January, 3})
	assert.Equal(t, MonthDay{time.January, 4}, got[6])

	got = BirthdayWindow(time.Date(2023, time.February, 27, 0, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, []MonthDay{{time.February, 27}, {time.February, 28}, {time.March, 1}}, got)

	got = BirthdayWindow(time.Date(2024, time.February, 27, 0, 0, 0, 0, time.UTC), 3)
	assert.Equal(t, []MonthDay{{time.February, 27}, {time.February, 28}, {time.February, 29}}, got)

	assert.Nil(t, BirthdayWindow(time.Now(), 0))
}
