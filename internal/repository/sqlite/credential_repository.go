package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"student-api/internal/domain"
	"student-api/internal/repository"
)

const createCredentialsTable = `
CREATE TABLE IF NOT EXISTS %s (
	email TEXT NOT NULL PRIMARY KEY,
	password_hash BLOB NOT NULL,
	created_at DATETIME NOT NULL
);
`

type CredentialRepository struct {
	db    *sql.DB
	table string
}

func NewCredentialRepository(db *sql.DB, table string) (repository.CredentialRepository, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	return &CredentialRepository{db: db, table: table}, nil
}

func (r *CredentialRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(createCredentialsTable, r.table)); err != nil {
		return unavailable("create credentials table", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT email, password_hash, created_at
FROM %s
WHERE email = ?`, r.table),
		email,
	)

	var cred domain.Credential
	if err := row.Scan(&cred.Email, &cred.PasswordHash, &cred.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, unavailable("find credential", err)
	}
	return &cred, nil
}

func (r *CredentialRepository) Insert(ctx context.Context, cred *domain.Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (email, password_hash, created_at)
VALUES (?, ?, ?)`, r.table),
		cred.Email,
		cred.PasswordHash,
		cred.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", repository.ErrDuplicateKey, cred.Email)
		}
		return unavailable("insert credential", err)
	}
	return nil
}
