// Package storage provides the durable client-side key/value store backing
// interaction history and settings.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Store persists serialized values under fixed keys. Every Put fully replaces
// the previous value; there are no partial writes, so a reader never observes
// a half-written state.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
