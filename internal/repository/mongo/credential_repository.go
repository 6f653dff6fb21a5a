package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"student-api/internal/domain"
	"student-api/internal/repository"
)

// credentialDoc keeps the field names used by existing user collections.
type credentialDoc struct {
	Email     string    `bson:"email"`
	Password  []byte    `bson:"password"`
	CreatedAt time.Time `bson:"created_at,omitempty"`
}

type CredentialRepository struct {
	coll *mongo.Collection
}

func (r *CredentialRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return unavailable("create email index", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	var doc credentialDoc
	err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, unavailable("find credential", err)
	}
	return &domain.Credential{
		Email:        doc.Email,
		PasswordHash: doc.Password,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (r *CredentialRepository) Insert(ctx context.Context, cred *domain.Credential) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	_, err := r.coll.InsertOne(ctx, credentialDoc{
		Email:     cred.Email,
		Password:  cred.PasswordHash,
		CreatedAt: cred.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: email %s", repository.ErrDuplicateKey, cred.Email)
		}
		return unavailable("insert credential", err)
	}
	return nil
}
