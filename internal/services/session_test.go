package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
)

func newTestSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewSessionStore(rdb, 7*24*time.Hour, zap.NewNop()), mr
}

func nextState(t *testing.T, ch <-chan models.AuthState) models.AuthState {
	t.Helper()
	select {
	case st, ok := <-ch:
		require.True(t, ok, "auth state channel closed")
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for auth state")
		return models.AuthState{}
	}
}

func TestSessionStore_CreateAndValidate(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, ok, err := store.Validate(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)

	assert.Equal(t, 7*24*time.Hour, mr.TTL(SessionKeyPrefix+token))
}

func TestSessionStore_ValidateUnknownAndEmpty(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	_, ok, err := store.Validate(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Validate(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_Expiry(t *testing.T) {
	store, mr := newTestSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	mr.FastForward(7*24*time.Hour + time.Second)

	_, ok, err := store.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionStore_NewSignInReplacesOldSession(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	second, err := store.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, ok, err := store.Validate(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok)

	userID, ok, err := store.Validate(ctx, second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "user-1", userID)
}

func TestSessionStore_InvalidateUnknown(t *testing.T) {
	store, _ := newTestSessionStore(t)

	err := store.Invalidate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// failPublish rejects PUBLISH and passes every other command through.
type failPublish struct{}

func (failPublish) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failPublish) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "publish" {
			return errors.New("publish refused")
		}
		return next(ctx, cmd)
	}
}

func (failPublish) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestSessionStore_InvalidateSurvivesPublishFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewSessionStore(rdb, time.Hour, zap.NewNop())
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	rdb.AddHook(failPublish{})
	require.NoError(t, store.Invalidate(ctx, token))

	_, ok, err := store.Validate(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(UserSessionKeyPrefix+"user-1"))
}

func TestSessionStore_SubscribeAnonymous(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	for _, token := range []string{"", "unknown-token"} {
		ch, unsubscribe, err := store.Subscribe(ctx, token)
		require.NoError(t, err)

		st := nextState(t, ch)
		assert.False(t, st.Authenticated())

		_, open := <-ch
		assert.False(t, open)
		unsubscribe()
	}
}

func TestSessionStore_SubscribeSeesSignOut(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	ch, unsubscribe, err := store.Subscribe(ctx, token)
	require.NoError(t, err)
	defer unsubscribe()

	st := nextState(t, ch)
	assert.True(t, st.Authenticated())
	assert.Equal(t, "user-1", st.UserID)

	require.NoError(t, store.Invalidate(ctx, token))

	st = nextState(t, ch)
	assert.False(t, st.Authenticated())
}

func TestSessionStore_SubscribeSeesReplacement(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	ch, unsubscribe, err := store.Subscribe(ctx, token)
	require.NoError(t, err)
	defer unsubscribe()
	nextState(t, ch)

	_, err = store.Create(ctx, "user-1")
	require.NoError(t, err)

	st := nextState(t, ch)
	assert.False(t, st.Authenticated())
}

func TestSessionStore_UnsubscribeClosesChannel(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, "user-1")
	require.NoError(t, err)

	ch, unsubscribe, err := store.Subscribe(ctx, token)
	require.NoError(t, err)
	nextState(t, ch)

	unsubscribe()
	unsubscribe()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestOfferLatest_KeepsNewest(t *testing.T) {
	ch := make(chan models.AuthState, 1)

	offerLatest(ch, models.AuthState{UserID: "a"})
	offerLatest(ch, models.AuthState{UserID: "b"})
	offerLatest(ch, models.AuthState{})

	st := <-ch
	assert.False(t, st.Authenticated())
	assert.Len(t, ch, 0)
}
