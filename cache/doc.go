// Package cache provides caching interfaces and key serialization for the cached
// configuration-manager decorator.
//
// # Overview
//
// This package exports two main interfaces and their default implementations:
//
//   - CacheService: a read-through cache with single and prefix invalidation
//   - KeySerializer: builds stable cache keys from method names and arguments
//
// The default key serializer is tuned for the argument shapes configuration lookups
// pass around — realm paths, instance names, sub-schema path slices and multi-valued
// attribute maps — and falls back to canonical JSON for anything else. Map-shaped
// arguments are rendered with sorted keys so keys stay deterministic across runs.
//
// # Basic Usage
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("OrganizationConfig", "/sub", "selfService")
//
//	config, err := cache.GetOrFetch(ctx, service, key, func(ctx context.Context) (*sms.ServiceConfig, error) {
//		return manager.OrganizationConfig(ctx, "/sub", "selfService")
//	})
//
// GetOrFetch is generic; when a cached value cannot be converted back to the
// requested type the call fails with ErrInvalidResultType instead of panicking.
//
// # See Also
//
// For the decorator that drives this package see smscache. For the sturdyc-backed
// implementation and its configuration see internal/cacheinfra.
package cache
