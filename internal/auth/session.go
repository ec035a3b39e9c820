package auth

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/config"
	"github.com/prepmitra/prepmitra-client/internal/store"
)

// SessionContext holds the backend bearer token for this agent. Lifecycle:
// init-from-store on startup, mutate-in-memory, persist-on-change. Callers
// receive it explicitly instead of reading ambient storage.
type SessionContext struct {
	mu    sync.RWMutex
	token string

	kv  store.KV
	log zerolog.Logger
	now func() time.Time
}

// NewSessionContext loads the persisted token, if any. now may be nil.
func NewSessionContext(ctx context.Context, kv store.KV, log zerolog.Logger, now func() time.Time) *SessionContext {
	if now == nil {
		now = time.Now
	}
	s := &SessionContext{
		kv:  kv,
		log: log.With().Str("component", "session_context").Logger(),
		now: now,
	}

	token, ok, err := kv.Get(ctx, config.StoreKey.SessionTokenKey())
	if err != nil {
		s.log.Warn().Err(err).Msg("Session token load failed, starting unauthenticated")
		return s
	}
	if ok {
		s.token = token
	}
	return s
}

// Token returns the current bearer token ("" when unauthenticated).
func (s *SessionContext) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the token in memory and persists it.
func (s *SessionContext) SetToken(ctx context.Context, token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if err := s.kv.Set(ctx, config.StoreKey.SessionTokenKey(), token); err != nil {
		s.log.Warn().Err(err).Msg("Session token persist failed")
	}
}

// Clear drops the token from memory and the store.
func (s *SessionContext) Clear(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.kv.Del(ctx, config.StoreKey.SessionTokenKey()); err != nil {
		s.log.Warn().Err(err).Msg("Session token clear failed")
	}
}

// ExpiresAt reads the exp claim from the stored token without verifying the
// signature — verification is the backend's job; the agent only wants to know
// whether a round trip is worth attempting. Returns false when there is no
// token or no parseable expiry.
func (s *SessionContext) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Valid reports whether a non-expired token is present.
func (s *SessionContext) Valid() bool {
	if s.Token() == "" {
		return false
	}
	exp, ok := s.ExpiresAt()
	if !ok {
		// A token without an expiry claim is taken at face value.
		return true
	}
	return exp.After(s.now())
}
