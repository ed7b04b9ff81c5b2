package model

import "time"

// User represents an application user record as stored in the `users`
// table.  PasswordHash and RefreshTokenHash never leave the server; handlers
// respond with UserResponse instead.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Username         – display name chosen at signup.
//  Email            – unique email address, also the token subject.
//  PasswordHash     – bcrypt hashed password.
//  RefreshTokenHash – SHA‑256 digest of the only valid refresh token (nullable).
//  Confirmed        – whether the email address has been confirmed.
//  Avatar           – URL of the uploaded avatar (nullable).
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64     // users.id
	Username         string     // users.username
	Email            string     // users.email
	PasswordHash     string     // users.password
	RefreshTokenHash *string    // users.refresh_token
	Confirmed        bool       // users.confirmed
	Avatar           *string    // users.avatar
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    *string   `json:"avatar"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// Response strips credentials from u.
func (u User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Confirmed: u.Confirmed,
		CreatedAt: u.CreatedAt,
	}
}

// TokenPair is returned by login and refresh and cached per user by the
// session cache.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
