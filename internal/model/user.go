package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Claims is the decoded content of an access token. Extra holds every claim
// beyond the subject and the two timestamps, e.g. "email".
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

func (c *Claims) Email() string {
	if c == nil {
		return ""
	}
	email, _ := c.Extra["email"].(string)
	return email
}

type AuthResult struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresIn int64  `json:"expires_in"`
}

type CurrentUser struct {
	UserID string  `json:"user_id"`
	Email  *string `json:"email"`
}
