package services

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/database"
	"github.com/AnshRaj112/profiledir-backend/internal/models"
)

type memoryIdentityStore struct {
	mu      sync.Mutex
	byEmail map[string]models.Identity
}

func newMemoryIdentityStore() *memoryIdentityStore {
	return &memoryIdentityStore{byEmail: make(map[string]models.Identity)}
}

func (m *memoryIdentityStore) Insert(_ context.Context, identity *models.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[identity.Email]; exists {
		return ErrEmailInUse
	}
	m.byEmail[identity.Email] = *identity
	return nil
}

func (m *memoryIdentityStore) FindByEmail(_ context.Context, email string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.byEmail[email]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	return &identity, nil
}

func newTestIdentityService(t *testing.T) *IdentityService {
	t.Helper()
	sessions, _ := newTestSessionStore(t)
	return NewIdentityService(newMemoryIdentityStore(), sessions, zap.NewNop())
}

func TestIdentityService_CreateAndAuthenticate(t *testing.T) {
	svc := newTestIdentityService(t)
	ctx := context.Background()

	id, err := svc.CreateIdentity(ctx, "  Ada@Example.com ", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	identity, token, err := svc.Authenticate(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, identity.ID)
	assert.Equal(t, "ada@example.com", identity.Email)
	assert.NotEmpty(t, token)
}

func TestIdentityService_DuplicateEmail(t *testing.T) {
	svc := newTestIdentityService(t)
	ctx := context.Background()

	_, err := svc.CreateIdentity(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.CreateIdentity(ctx, "ADA@example.com", "another1")
	assert.ErrorIs(t, err, ErrEmailInUse)
	assert.Equal(t, "email address is already in use", err.Error())
}

func TestIdentityService_WeakPassword(t *testing.T) {
	svc := newTestIdentityService(t)

	for _, pw := range []string{"12345", "ééé", "日本語"} {
		_, err := svc.CreateIdentity(context.Background(), "ada@example.com", pw)
		assert.ErrorIs(t, err, ErrWeakPassword, "password %q", pw)
	}

	_, err := svc.CreateIdentity(context.Background(), "ada@example.com", "éééééé")
	assert.NoError(t, err)
}

func TestIdentityService_InvalidCredentials(t *testing.T) {
	svc := newTestIdentityService(t)
	ctx := context.Background()

	_, err := svc.CreateIdentity(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Authenticate(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIdentityService_SignOutPublishesAnonymous(t *testing.T) {
	svc := newTestIdentityService(t)
	ctx := context.Background()

	_, err := svc.CreateIdentity(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	_, token, err := svc.Authenticate(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	ch, unsubscribe, err := svc.Subscribe(ctx, token)
	require.NoError(t, err)
	defer unsubscribe()
	assert.True(t, nextState(t, ch).Authenticated())

	require.NoError(t, svc.SignOut(ctx, token))
	assert.False(t, nextState(t, ch).Authenticated())

	assert.ErrorIs(t, svc.SignOut(ctx, token), ErrSessionNotFound)
}

func TestPostgresIdentityStore(t *testing.T) {
	uri := os.Getenv("TEST_POSTGRES_URI")
	if uri == "" {
		t.Skip("TEST_POSTGRES_URI not set")
	}
	ctx := context.Background()

	db, err := sql.Open("postgres", uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitPostgresTables(ctx, db))

	svc := NewIdentityService(NewPostgresIdentityStore(db), nil, zap.NewNop())
	email := "pg-" + t.Name() + "@example.com"
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM identities WHERE email = $1`, NormalizeEmail(email))
	})

	id, err := svc.CreateIdentity(ctx, email, "secret1")
	require.NoError(t, err)

	_, err = svc.CreateIdentity(ctx, email, "secret1")
	assert.ErrorIs(t, err, ErrEmailInUse)

	found, err := svc.store.FindByEmail(ctx, NormalizeEmail(email))
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)

	_, err = svc.store.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}
