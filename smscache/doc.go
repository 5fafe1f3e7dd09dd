// Package smscache decorates a sms.ConfigManager with read-through caching.
//
// Read operations (instance and sub-config lookups, name listings) go through a
// cache.CacheService keyed by a cache.KeySerializer; write operations delegate to
// the base manager and then invalidate the affected entries. The decorator tracks
// the keys it has populated so prefix invalidation only touches entries it owns.
//
// CachedManager is a drop-in sms.ConfigManager. It does not implement
// sms.ChangeNotifier; change notifications keep flowing from the underlying store.
package smscache
