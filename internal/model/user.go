package model

import "time"

// Credential constraints
const (
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// User represents a user account
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Hash      string    `json:"-"` // Never expose password hash
	CreatedAt time.Time `json:"created_at"`
}

// Principal is the authenticated caller of an operation. Username is the
// user identifier used when naming uploaded images.
type Principal struct {
	UserID   string
	Username string
}

// IsZero reports whether no user is authenticated
func (p Principal) IsZero() bool {
	return p.UserID == ""
}

// Credentials is the body of register and login requests
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned after a successful register or login
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int    `json:"expiresIn"`
}
