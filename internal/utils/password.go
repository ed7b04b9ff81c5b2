package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashFormat means a stored hash is not a bcrypt hash.  It never happens
// for hashes produced by HashPassword.
var ErrHashFormat = errors.New("malformed password hash")

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash and a plain password.  A mismatch is
// (false, nil); only an unreadable hash produces an error.
func VerifyPassword(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, errors.Join(ErrHashFormat, err)
	}
}
