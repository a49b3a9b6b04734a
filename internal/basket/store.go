package basket

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("basket not found")

// Store is a keyed transient store. Entries vanish once their ttl elapses.
type Store interface {
	Put(ctx context.Context, code string, b Basket, ttl time.Duration) error
	// PutIfAbsent stores b only when code is free and reports whether it did.
	PutIfAbsent(ctx context.Context, code string, b Basket, ttl time.Duration) (bool, error)
	Get(ctx context.Context, code string) (Basket, error)
	Delete(ctx context.Context, code string) error
}
