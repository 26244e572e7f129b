package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned for absent keys or hash fields.
var ErrNotFound = errors.New("key not found")

// KV is the hash-map slice of the key-value store the service relies
// on. Targets live in one hash, quota counters in one hash per target;
// nothing here is transactional, callers own their read-modify-write
// races.
type KV interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field, value string) error
	HVals(ctx context.Context, key string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
