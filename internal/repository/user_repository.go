package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/contacts-api/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password,refresh_token,confirmed,avatar,created_at,updated_at"

// Create inserts an unconfirmed user and fills in ID and timestamps.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password, confirmed) VALUES (?,?,?,FALSE)",
		u.Username, u.Email, u.PasswordHash)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = created
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// UpdateRefreshToken replaces the stored refresh token digest.  A nil digest
// clears it, which logs the user out everywhere.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, userID uint64, digest *string) error {
	return r.execOne(ctx,
		"UPDATE users SET refresh_token=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		digest, userID)
}

// Confirm marks the email as confirmed.
func (r *UserRepo) Confirm(ctx context.Context, email string) error {
	return r.execOne(ctx,
		"UPDATE users SET confirmed=TRUE, updated_at=CURRENT_TIMESTAMP WHERE email=?",
		normalizeEmail(email))
}

// UpdatePassword stores a new bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, email, hash string) error {
	return r.execOne(ctx,
		"UPDATE users SET password=?, updated_at=CURRENT_TIMESTAMP WHERE email=?",
		hash, normalizeEmail(email))
}

// UpdateAvatar stores the avatar URL and returns the refreshed user.
func (r *UserRepo) UpdateAvatar(ctx context.Context, email, url string) (model.User, error) {
	if err := r.execOne(ctx,
		"UPDATE users SET avatar=?, updated_at=CURRENT_TIMESTAMP WHERE email=?",
		url, normalizeEmail(email)); err != nil {
		return model.User{}, err
	}
	return r.GetByEmail(ctx, email)
}

// execOne runs an UPDATE and reports ErrUserNotFound when no row matched.
// database.Open sets clientFoundRows, so the count is of matched rows even
// when the new value equals the old one.
func (r *UserRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
		avatar  sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &refresh,
		&u.Confirmed, &avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if refresh.Valid {
		u.RefreshTokenHash = &refresh.String
	}
	if avatar.Valid {
		u.Avatar = &avatar.String
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "1062")
}
