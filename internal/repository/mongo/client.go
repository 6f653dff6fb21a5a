package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"student-api/internal/repository"
)

// Store owns the client connection pool shared by the collection repositories.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials the deployment and verifies it answers a ping. Every
// operation issued through the returned store is bounded by timeout.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetTimeout(timeout)
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Credentials(collection string) repository.CredentialRepository {
	return &CredentialRepository{coll: s.db.Collection(collection)}
}

func (s *Store) Students(collection string) repository.StudentRepository {
	return &StudentRepository{coll: s.db.Collection(collection)}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", repository.ErrStoreUnavailable, op, err)
}
