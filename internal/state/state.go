// Package state persists small per-visitor blobs (cart, wishlist) under a
// namespace and a visitor key.
package state

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("state not found")

// Store loads and saves opaque state blobs.
type Store interface {
	// Load returns ErrNotFound when nothing is stored under namespace/key.
	Load(ctx context.Context, namespace, key string) ([]byte, error)
	Save(ctx context.Context, namespace, key string, data []byte) error
	Delete(ctx context.Context, namespace, key string) error
}

// Pruner is implemented by stores that need stale entries removed by a
// background job. Stores that expire entries themselves do not implement it.
type Pruner interface {
	PruneBefore(ctx context.Context, cutoff int64) (int64, error)
}
