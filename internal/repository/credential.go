package repository

import (
	"context"

	"student-api/internal/domain"
)

// CredentialRepository persists login credentials keyed by email.
type CredentialRepository interface {
	// Init prepares the collection, including the unique email index.
	Init(ctx context.Context) error
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	Insert(ctx context.Context, cred *domain.Credential) error
}
