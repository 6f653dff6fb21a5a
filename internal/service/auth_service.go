package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"student-api/internal/domain"
	"student-api/internal/repository"
	"student-api/internal/token"
)

// MinBcryptCost is the lowest work factor accepted for password hashes.
const MinBcryptCost = bcrypt.DefaultCost

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyExists is returned when attempting to register an email twice.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrInvalidInput is wrapped by every registration field error below.
	ErrInvalidInput = errors.New("invalid input")

	ErrEmailRequired    = fmt.Errorf("%w: email is required", ErrInvalidInput)
	ErrPasswordRequired = fmt.Errorf("%w: password is required", ErrInvalidInput)
	ErrPasswordTooLong  = fmt.Errorf("%w: password must be at most 72 bytes", ErrInvalidInput)
)

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	Subject     string
	ExpiresAt   time.Time
}

// AuthService describes credential lifecycle operations.
type AuthService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*Session, error)
	// Verify returns the email a valid token was issued to.
	Verify(raw string) (string, error)
}

type authService struct {
	credentials repository.CredentialRepository
	tokens      *token.Manager
	cost        int
	// compared against when the email is unknown so both login failures cost the same
	dummyHash []byte
}

func NewAuthService(credentials repository.CredentialRepository, tokens *token.Manager, cost int) (AuthService, error) {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	if cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d exceeds maximum %d", cost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("student-api-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &authService{
		credentials: credentials,
		tokens:      tokens,
		cost:        cost,
		dummyHash:   dummy,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// findCredential looks up the normalized address first and then the address
// as typed, so accounts stored with mixed case before normalization still match.
func (s *authService) findCredential(ctx context.Context, email string) (*domain.Credential, error) {
	normalized := normalizeEmail(email)
	cred, err := s.credentials.FindByEmail(ctx, normalized)
	if !errors.Is(err, repository.ErrNotFound) {
		return cred, err
	}
	if exact := strings.TrimSpace(email); exact != normalized {
		return s.credentials.FindByEmail(ctx, exact)
	}
	return nil, err
}

func (s *authService) Register(ctx context.Context, rawEmail, password string) error {
	email := normalizeEmail(rawEmail)
	if email == "" {
		return ErrEmailRequired
	}
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	_, err := s.findCredential(ctx, rawEmail)
	switch {
	case err == nil:
		return ErrAlreadyExists
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("lookup credential: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	cred := &domain.Credential{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.credentials.Insert(ctx, cred); err != nil {
		// the unique index catches registrations that raced past the lookup
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	if normalizeEmail(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	cred, err := s.findCredential(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	raw, claims, err := s.tokens.Issue(cred.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		AccessToken: raw,
		Subject:     claims.Subject,
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

func (s *authService) Verify(raw string) (string, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
