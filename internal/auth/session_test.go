package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/prepmitra/prepmitra-client/internal/auth"
	"github.com/prepmitra/prepmitra-client/internal/store"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "student-1", "exp": exp.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestSessionTokenPersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	sc := auth.NewSessionContext(ctx, kv, zerolog.Nop(), nil)
	if sc.Token() != "" {
		t.Fatalf("fresh token = %q", sc.Token())
	}

	sc.SetToken(ctx, "tok-123")

	// A second context over the same store sees the token.
	sc2 := auth.NewSessionContext(ctx, kv, zerolog.Nop(), nil)
	if sc2.Token() != "tok-123" {
		t.Fatalf("reloaded token = %q", sc2.Token())
	}

	sc2.Clear(ctx)
	sc3 := auth.NewSessionContext(ctx, kv, zerolog.Nop(), nil)
	if sc3.Token() != "" {
		t.Fatalf("token after clear = %q", sc3.Token())
	}
}

func TestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	sc := auth.NewSessionContext(ctx, store.NewMemoryKV(), zerolog.Nop(), clock)

	if sc.Valid() {
		t.Fatal("valid with no token")
	}
	if _, ok := sc.ExpiresAt(); ok {
		t.Fatal("expiry reported with no token")
	}

	exp := now.Add(time.Hour)
	sc.SetToken(ctx, signedToken(t, exp))

	got, ok := sc.ExpiresAt()
	if !ok || !got.Equal(exp.Truncate(time.Second)) {
		t.Fatalf("expiresAt = %v, %v", got, ok)
	}
	if !sc.Valid() {
		t.Fatal("fresh token reported invalid")
	}

	sc.SetToken(ctx, signedToken(t, now.Add(-time.Hour)))
	if sc.Valid() {
		t.Fatal("expired token reported valid")
	}

	// An opaque token without claims is taken at face value.
	sc.SetToken(ctx, "opaque-token")
	if !sc.Valid() {
		t.Fatal("opaque token reported invalid")
	}
}
