package store

import "time"

// Stamped wraps a cached value with its capture time. All cache kinds share
// this one envelope so TTL checks live in exactly one place.
type Stamped[T any] struct {
	Value      T     `json:"value"`
	CapturedAt int64 `json:"capturedAt"` // unix milliseconds
}

// NewStamped captures a value at the given instant.
func NewStamped[T any](value T, now time.Time) Stamped[T] {
	return Stamped[T]{Value: value, CapturedAt: now.UnixMilli()}
}

// Valid reports whether the value is still within its TTL at the given
// instant. Expired values must be treated as absent, never returned.
func (s Stamped[T]) Valid(now time.Time, ttl time.Duration) bool {
	captured := time.UnixMilli(s.CapturedAt)
	return now.Sub(captured) <= ttl
}
