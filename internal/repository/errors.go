// Package repository contains data access logic separated from HTTP handlers.
// The sentinel values below let the service layer tell failure scenarios
// apart without inspecting driver errors.
package repository

import "errors"

// ErrEmailExists is returned when a user with the same email is already
// registered.  Handlers translate it into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrContactNotFound is returned when a contact does not exist or belongs
// to another user. The two cases look the same to the caller.
var ErrContactNotFound = errors.New("contact not found")
