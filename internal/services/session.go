package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
	// AuthStateChannelPrefix is the pub/sub channel prefix for auth-state events
	AuthStateChannelPrefix = "auth:state:"
)

// SessionStore keeps sessions in Redis and publishes a session's auth-state
// changes on its own channel. A user has at most one live session.
type SessionStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl, logger: logger, now: time.Now}
}

// Create creates a new session for a user and returns its token.
// Any existing session for the user is invalidated first, so the TTL
// restarts from the current sign-in.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	if err := s.InvalidateUser(ctx, userID); err != nil {
		return "", err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(tokenBytes)

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SessionKeyPrefix+token, userID, s.ttl)
		pipe.Set(ctx, UserSessionKeyPrefix+userID, token, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Validate returns the user the session belongs to. ok is false for empty,
// unknown and expired tokens.
func (s *SessionStore) Validate(ctx context.Context, token string) (userID string, ok bool, err error) {
	if token == "" {
		return "", false, nil
	}

	userID, err = s.rdb.Get(ctx, SessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load session: %w", err)
	}
	return userID, true, nil
}

// Invalidate removes a session and tells its subscribers it is now anonymous.
func (s *SessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	userID, ok, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}

	userSessionKey := UserSessionKeyPrefix + userID
	current, err := s.rdb.Get(ctx, userSessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load user session: %w", err)
	}

	keys := []string{SessionKeyPrefix + token}
	if current == token {
		keys = append(keys, userSessionKey)
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	// The keys are gone, so the sign-out stands even if nobody hears about it.
	if err := s.publish(ctx, token, models.AuthState{At: s.now().UTC()}); err != nil {
		s.logger.Warn("sign-out not broadcast", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// InvalidateUser invalidates the live session of a user, if any.
func (s *SessionStore) InvalidateUser(ctx context.Context, userID string) error {
	token, err := s.rdb.Get(ctx, UserSessionKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user session: %w", err)
	}

	if err := s.Invalidate(ctx, token); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	// The mapping can outlive an expired session key.
	return s.rdb.Del(ctx, UserSessionKeyPrefix+userID).Err()
}

// Subscribe streams the auth state of one session. The current state is
// delivered first. Sessions that are already anonymous get a single
// anonymous event and a closed channel, since a token never becomes valid
// again. The channel holds only the most recent undelivered event.
//
// unsubscribe releases the Redis subscription and closes the channel; it is
// safe to call more than once.
func (s *SessionStore) Subscribe(ctx context.Context, token string) (<-chan models.AuthState, func(), error) {
	out := make(chan models.AuthState, 1)

	if token == "" {
		out <- models.AuthState{At: s.now().UTC()}
		close(out)
		return out, func() {}, nil
	}

	// Subscribe before reading the current state so no change is missed
	// between the two.
	sub := s.rdb.Subscribe(ctx, AuthStateChannelPrefix+token)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe auth state: %w", err)
	}

	userID, ok, err := s.Validate(ctx, token)
	if err != nil {
		_ = sub.Close()
		return nil, nil, err
	}
	if !ok {
		_ = sub.Close()
		out <- models.AuthState{At: s.now().UTC()}
		close(out)
		return out, func() {}, nil
	}
	out <- models.AuthState{UserID: userID, At: s.now().UTC()}

	subCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			_ = sub.Close()
		})
	}

	go func() {
		defer close(out)
		defer unsubscribe()

		msgs := sub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var state models.AuthState
				if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
					s.logger.Warn("dropping malformed auth state event", zap.Error(err))
					continue
				}
				offerLatest(out, state)
			}
		}
	}()

	return out, unsubscribe, nil
}

func (s *SessionStore) publish(ctx context.Context, token string, state models.AuthState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.rdb.Publish(ctx, AuthStateChannelPrefix+token, data).Err(); err != nil {
		return fmt.Errorf("publish auth state: %w", err)
	}
	return nil
}

// offerLatest replaces any undelivered event in ch with state. ch must have
// a buffer of one and a single sender.
func offerLatest(ch chan models.AuthState, state models.AuthState) {
	for {
		select {
		case ch <- state:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
