package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"student-api/internal/domain"
	"student-api/internal/repository"
	"student-api/internal/storage"
)

type fakeCredentials struct {
	mu      sync.Mutex
	byEmail map[string]domain.Credential
	findErr error
	// insertErr is returned by Insert without storing anything
	insertErr error
}

func newFakeCredentials() *fakeCredentials {
	return &fakeCredentials{byEmail: make(map[string]domain.Credential)}
}

func (f *fakeCredentials) Init(context.Context) error { return nil }

func (f *fakeCredentials) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	cred, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cred, nil
}

func (f *fakeCredentials) Insert(_ context.Context, cred *domain.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.byEmail[cred.Email]; ok {
		return repository.ErrDuplicateKey
	}
	f.byEmail[cred.Email] = *cred
	return nil
}

type fakeStudents struct {
	records []domain.Student
	seq     int
	err     error
}

func (f *fakeStudents) Init(context.Context) error { return nil }

func (f *fakeStudents) List(context.Context) ([]domain.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Student(nil), f.records...), nil
}

func (f *fakeStudents) Insert(_ context.Context, fields domain.Fields) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.seq++
	id := fmt.Sprintf("id-%d", f.seq)
	f.records = append(f.records, domain.Student{ID: id, Fields: fields})
	return id, nil
}

func (f *fakeStudents) UpdateByID(_ context.Context, id string, fields domain.Fields) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	for i := range f.records {
		if f.records[i].ID == id {
			for k, v := range fields {
				f.records[i].Fields[k] = v
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStudents) DeleteByID(_ context.Context, id string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeStorage struct {
	objects map[string][]byte
	listed  []storage.ObjectInfo
}

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, body io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[key] = b
	return "s3://" + bucket + "/" + key, nil
}

func (f *fakeStorage) ListObjects(context.Context, string, string) ([]storage.ObjectInfo, error) {
	return f.listed, nil
}

func (f *fakeStorage) GetObjectURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.example/%s?expires=%d", bucket, key, int(expires.Seconds())), nil
}
