package domain

import "time"

// Credential is the login record of a registered user.
type Credential struct {
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
