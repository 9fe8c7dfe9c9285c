package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
	"github.com/AnshRaj112/profiledir-backend/pkg/utils"
)

// MinPasswordLength is the shortest password the identity provider accepts.
const MinPasswordLength = 6

// IdentityStore persists identities. Insert must return ErrEmailInUse when
// the email is already registered.
type IdentityStore interface {
	Insert(ctx context.Context, identity *models.Identity) error
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
}

// PostgresIdentityStore keeps identities in the identities table.
type PostgresIdentityStore struct {
	db *sql.DB
}

func NewPostgresIdentityStore(db *sql.DB) *PostgresIdentityStore {
	return &PostgresIdentityStore{db: db}
}

func (s *PostgresIdentityStore) Insert(ctx context.Context, identity *models.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, identity.ID, identity.Email, identity.PasswordHash, identity.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrEmailInUse
	}
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresIdentityStore) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM identities WHERE email = $1
	`, email).Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return &identity, nil
}

// IdentityService is the identity provider: account creation, password
// sign-in, sign-out and the per-session auth-state stream.
type IdentityService struct {
	store    IdentityStore
	sessions *SessionStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewIdentityService(store IdentityStore, sessions *SessionStore, logger *zap.Logger) *IdentityService {
	return &IdentityService{store: store, sessions: sessions, logger: logger, now: time.Now}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateIdentity registers a new account and returns its id.
func (s *IdentityService) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	identity := &models.Identity{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Insert(ctx, identity); err != nil {
		return "", err
	}

	s.logger.Info("identity created", zap.String("identity_id", identity.ID))
	return identity.ID, nil
}

// Authenticate checks credentials and opens a session. It returns the
// identity and the session token.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*models.Identity, string, error) {
	identity, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrIdentityNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	ok, err := utils.VerifyPassword(password, identity.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, identity.ID)
	if err != nil {
		return nil, "", err
	}
	return identity, token, nil
}

// SignOut ends the session identified by token.
func (s *IdentityService) SignOut(ctx context.Context, token string) error {
	return s.sessions.Invalidate(ctx, token)
}

// Subscribe streams the auth state of the session identified by token.
func (s *IdentityService) Subscribe(ctx context.Context, token string) (<-chan models.AuthState, func(), error) {
	return s.sessions.Subscribe(ctx, token)
}
