package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidResultType reports that a cached value could not be converted back to
// the type the caller asked for. It normally indicates two call sites sharing a key
// while fetching different types.
var ErrInvalidResultType = errors.New("cache: result does not match requested type")

// KeySerializer builds a cache key from a method name plus arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the function signature CacheService expects when fetching from the
// source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through caching operations used when decorating
// configuration managers. It is exported so other packages can reuse the default
// serializer or provide alternate cache backends.
type CacheService interface {
	// GetOrFetch returns the cached value for key, invoking fetch to populate the
	// cache on a miss. Concurrent callers for the same key trigger a single fetch.
	GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error)
	// Delete removes a single entry. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every entry whose key starts with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// GetOrFetch is the type-safe wrapper around CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetch FetchFn[T]) (T, error) {
	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if result == nil {
		// A nil any is the zero value for interface and pointer types.
		var zero T
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: key %q holds %T", ErrInvalidResultType, key, result)
	}
	return typed, nil
}
