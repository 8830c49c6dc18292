package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a key holds no value.
var ErrNotFound = errors.New("key not found")

// KV is the single-slot string store the ledger persists through.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
