package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-api/internal/domain"
	"student-api/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newStudents(t *testing.T) repository.StudentRepository {
	t.Helper()
	repo, err := NewStudentRepository(openTestDB(t), "students")
	require.NoError(t, err)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestPathFromURI(t *testing.T) {
	path, err := PathFromURI("sqlite://data/students.db")
	require.NoError(t, err)
	assert.Equal(t, "data/students.db", path)

	path, err = PathFromURI("sqlite::memory:")
	require.NoError(t, err)
	assert.Equal(t, MemoryPath, path)

	_, err = PathFromURI("mongodb://localhost")
	assert.Error(t, err)
	_, err = PathFromURI("sqlite://")
	assert.Error(t, err)
}

func TestInvalidTableName(t *testing.T) {
	_, err := NewStudentRepository(openTestDB(t), "students; DROP TABLE x")
	assert.Error(t, err)
	_, err = NewCredentialRepository(openTestDB(t), "1users")
	assert.Error(t, err)
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()
	repo, err := NewCredentialRepository(openTestDB(t), "users")
	require.NoError(t, err)
	require.NoError(t, repo.Init(ctx))

	_, err = repo.FindByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cred := &domain.Credential{Email: "alice@example.com", PasswordHash: []byte("hash")}
	require.NoError(t, repo.Insert(ctx, cred))
	assert.False(t, cred.CreatedAt.IsZero())

	got, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, []byte("hash"), got.PasswordHash)

	err = repo.Insert(ctx, &domain.Credential{Email: "alice@example.com", PasswordHash: []byte("other")})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestStudentRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newStudents(t)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	id, err := repo.Insert(ctx, domain.Fields{"name": domain.String("Ann"), "age": domain.Int(20)})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	n, err := repo.UpdateByID(ctx, id, domain.Fields{"age": domain.Int(21), "tags": domain.List{domain.String("x")}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, domain.String("Ann"), list[0].Fields["name"])
	assert.Equal(t, domain.Int(21), list[0].Fields["age"])
	assert.Equal(t, domain.List{domain.String("x")}, list[0].Fields["tags"])

	n, err = repo.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStudentRepositoryUpdateWithoutChanges(t *testing.T) {
	ctx := context.Background()
	repo := newStudents(t)

	id, err := repo.Insert(ctx, domain.Fields{"name": domain.String("Ann")})
	require.NoError(t, err)

	n, err := repo.UpdateByID(ctx, id, domain.Fields{"name": domain.String("Ann")})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestStudentRepositoryUnknownAndInvalidID(t *testing.T) {
	ctx := context.Background()
	repo := newStudents(t)

	n, err := repo.UpdateByID(ctx, "7b4b2a4e-6f0e-4d55-9a53-0d7c1f0e8a11", domain.Fields{"a": domain.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = repo.UpdateByID(ctx, "not-an-id", domain.Fields{"a": domain.Int(1)})
	assert.ErrorIs(t, err, repository.ErrInvalidID)

	_, err = repo.DeleteByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, repository.ErrInvalidID)
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	db := openTestDB(t)
	repo, err := NewStudentRepository(db, "students")
	require.NoError(t, err)

	// table was never created
	_, err = repo.List(context.Background())
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestStudentRepositoryKeepsWholeFloats(t *testing.T) {
	ctx := context.Background()
	repo := newStudents(t)

	id, err := repo.Insert(ctx, domain.Fields{
		"gpa":    domain.Float(3),
		"scores": domain.List{domain.Float(2), domain.Int(2), domain.Float(2.5)},
	})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.Float(3), list[0].Fields["gpa"])
	assert.Equal(t, domain.List{domain.Float(2), domain.Int(2), domain.Float(2.5)}, list[0].Fields["scores"])

	for i := 0; i < 2; i++ {
		n, err := repo.UpdateByID(ctx, id, domain.Fields{"gpa": domain.Float(3)})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	}

	n, err := repo.UpdateByID(ctx, id, domain.Fields{"gpa": domain.Int(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
