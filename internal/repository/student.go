package repository

import (
	"context"

	"student-api/internal/domain"
)

// StudentRepository persists schema-less student records.
type StudentRepository interface {
	Init(ctx context.Context) error
	// List returns every record in store order.
	List(ctx context.Context) ([]domain.Student, error)
	// Insert stores a new record and returns its generated identifier.
	Insert(ctx context.Context, fields domain.Fields) (string, error)
	// UpdateByID merges fields into the record and reports how many records
	// changed (0 when the id is unknown or nothing differed).
	UpdateByID(ctx context.Context, id string, fields domain.Fields) (int64, error)
	// DeleteByID removes the record and reports how many were deleted.
	DeleteByID(ctx context.Context, id string) (int64, error)
}
