package model

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential is the salted password record stored next to a user.
type Credential struct {
	UserID string
	Hash   string
	Salt   string
}

// SessionData is the server-side payload of a session, keyed by the session id.
type SessionData struct {
	OwnerID string `json:"id"`
}
