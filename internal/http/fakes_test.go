package http

import (
	"context"
	"time"

	"student-api/internal/domain"
	"student-api/internal/repository"
	"student-api/internal/service"
)

type failingStudents struct{}

func (failingStudents) List(context.Context) ([]domain.Student, error) {
	return nil, repository.ErrStoreUnavailable
}

func (failingStudents) Create(context.Context, domain.Fields) (string, error) {
	return "", repository.ErrStoreUnavailable
}

func (failingStudents) Update(context.Context, string, domain.Fields) (bool, error) {
	return false, repository.ErrStoreUnavailable
}

func (failingStudents) Delete(context.Context, string) (bool, error) {
	return false, repository.ErrStoreUnavailable
}

func (failingStudents) Export(context.Context) (*service.Export, error) {
	return nil, repository.ErrStoreUnavailable
}

func (failingStudents) ListExports(context.Context) ([]service.Export, error) {
	return nil, repository.ErrStoreUnavailable
}

type exportingStudents struct {
	failingStudents
	modified time.Time
}

func (e exportingStudents) Export(context.Context) (*service.Export, error) {
	return &service.Export{Key: "exports/a.json", Location: "s3://b/exports/a.json", URL: "https://b/exports/a.json", Records: 2, Size: 10}, nil
}

func (e exportingStudents) ListExports(context.Context) ([]service.Export, error) {
	return []service.Export{{Key: "exports/a.json", Location: "s3://b/exports/a.json", Size: 10, LastModified: &e.modified}}, nil
}
