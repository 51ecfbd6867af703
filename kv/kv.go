// Package kv holds the volatile key-value stores shared by the response cache
// and the one-time-passcode table.
package kv

import (
	"context"
	"errors"
	"time"
)

var ErrMiss = errors.New("kv: key not found")

// Store is a byte-oriented key-value store with per-key expiry. Every
// operation is atomic per key; nothing spans keys.
type Store interface {
	// Get returns ErrMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key and reports whether this call removed it.
	Delete(ctx context.Context, key string) (bool, error)
	// DeletePattern removes every key matching a glob pattern ("seller:*").
	DeletePattern(ctx context.Context, pattern string) (int, error)
	// Incr adds one to the counter under key and returns the new value. A
	// counter created by this call expires after ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
