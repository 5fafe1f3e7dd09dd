package smscache

import (
	"context"
	"strings"
	"sync"

	"github.com/gravitational/trace"

	"github.com/goliatone/go-realm-services/cache"
	"github.com/goliatone/go-realm-services/sms"
)

// Interface assertion to ensure CachedManager stays a drop-in ConfigManager.
var _ sms.ConfigManager = (*CachedManager)(nil)

// Method names double as cache key prefixes.
const (
	keyGlobalConfig       = "GlobalConfig"
	keyOrganizationConfig = "OrganizationConfig"
	keyInstanceNames      = "InstanceNames"
	keySubConfig          = "SubConfig"
	keySubConfigNames     = "SubConfigNames"
)

// CachedManager decorates a base config manager with read-through caching.
type CachedManager struct {
	base          sms.ConfigManager
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	keyRegistry   *sync.Map // Tracks active cache keys for invalidation
}

// New creates a CachedManager wrapping the base manager.
func New(base sms.ConfigManager, cacheService cache.CacheService, keySerializer cache.KeySerializer) *CachedManager {
	return &CachedManager{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		keyRegistry:   &sync.Map{},
	}
}

// GlobalConfig returns a global instance, with caching.
func (c *CachedManager) GlobalConfig(ctx context.Context, name string) (*sms.ServiceConfig, error) {
	key := c.keySerializer.SerializeKey(keyGlobalConfig, name)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*sms.ServiceConfig, error) {
		return c.base.GlobalConfig(ctx, name)
	})
}

// OrganizationConfig returns a realm instance, with caching.
func (c *CachedManager) OrganizationConfig(ctx context.Context, realm, name string) (*sms.ServiceConfig, error) {
	key := c.keySerializer.SerializeKey(keyOrganizationConfig, realm, name)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*sms.ServiceConfig, error) {
		return c.base.OrganizationConfig(ctx, realm, name)
	})
}

// InstanceNames lists top-level instance names, with caching.
func (c *CachedManager) InstanceNames(ctx context.Context) ([]string, error) {
	key := c.keySerializer.SerializeKey(keyInstanceNames)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]string, error) {
		return c.base.InstanceNames(ctx)
	})
}

// SubConfig returns a nested config node, with caching.
func (c *CachedManager) SubConfig(ctx context.Context, realm string, parent []string, name string) (*sms.ServiceConfig, error) {
	key := c.keySerializer.SerializeKey(keySubConfig, realm, parent, name)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*sms.ServiceConfig, error) {
		return c.base.SubConfig(ctx, realm, parent, name)
	})
}

// SubConfigNames lists nested config names, with caching.
func (c *CachedManager) SubConfigNames(ctx context.Context, realm string, parent []string, schemaID string) ([]string, error) {
	key := c.keySerializer.SerializeKey(keySubConfigNames, realm, parent, schemaID)
	c.trackKey(key)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]string, error) {
		return c.base.SubConfigNames(ctx, realm, parent, schemaID)
	})
}

// CreateGlobalConfig delegates to the base manager and invalidates the listing.
func (c *CachedManager) CreateGlobalConfig(ctx context.Context, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	result, err := c.base.CreateGlobalConfig(ctx, name, attrs)
	if err == nil {
		c.invalidateInstance(ctx, "", name)
	}
	return result, trace.Wrap(err)
}

// CreateOrganizationConfig delegates to the base manager and invalidates the listing.
func (c *CachedManager) CreateOrganizationConfig(ctx context.Context, realm, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	result, err := c.base.CreateOrganizationConfig(ctx, realm, name, attrs)
	if err == nil {
		c.invalidateInstance(ctx, realm, name)
	}
	return result, trace.Wrap(err)
}

// SetAttributes delegates to the base manager and invalidates the instance.
func (c *CachedManager) SetAttributes(ctx context.Context, realm, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	result, err := c.base.SetAttributes(ctx, realm, name, attrs)
	if err == nil {
		c.invalidateInstance(ctx, realm, name)
	}
	return result, trace.Wrap(err)
}

// RemoveGlobalConfig delegates to the base manager and invalidates the instance.
func (c *CachedManager) RemoveGlobalConfig(ctx context.Context, name string) error {
	err := c.base.RemoveGlobalConfig(ctx, name)
	if err == nil {
		c.invalidateInstance(ctx, "", name)
	}
	return trace.Wrap(err)
}

// RemoveOrganizationConfig delegates to the base manager and invalidates the instance.
func (c *CachedManager) RemoveOrganizationConfig(ctx context.Context, realm, name string) error {
	err := c.base.RemoveOrganizationConfig(ctx, realm, name)
	if err == nil {
		c.invalidateInstance(ctx, realm, name)
	}
	return trace.Wrap(err)
}

// AddSubConfig delegates to the base manager and invalidates the parent's subtree.
func (c *CachedManager) AddSubConfig(ctx context.Context, realm string, parent []string, name, schemaID string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	result, err := c.base.AddSubConfig(ctx, realm, parent, name, schemaID, attrs)
	if err == nil {
		c.invalidateSubtree(ctx, realm)
	}
	return result, trace.Wrap(err)
}

// SetSubConfigAttributes delegates to the base manager and invalidates the subtree.
func (c *CachedManager) SetSubConfigAttributes(ctx context.Context, realm string, parent []string, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	result, err := c.base.SetSubConfigAttributes(ctx, realm, parent, name, attrs)
	if err == nil {
		c.invalidateSubtree(ctx, realm)
	}
	return result, trace.Wrap(err)
}

// RemoveSubConfig delegates to the base manager and invalidates the subtree.
func (c *CachedManager) RemoveSubConfig(ctx context.Context, realm string, parent []string, name string) error {
	err := c.base.RemoveSubConfig(ctx, realm, parent, name)
	if err == nil {
		c.invalidateSubtree(ctx, realm)
	}
	return trace.Wrap(err)
}

// trackKey registers a cache key in the key registry for later invalidation.
func (c *CachedManager) trackKey(key string) {
	c.keyRegistry.Store(key, struct{}{})
}

// invalidateByPrefix removes all tracked keys that start with the given prefix.
func (c *CachedManager) invalidateByPrefix(ctx context.Context, prefix string) {
	var keysToDelete []string
	c.keyRegistry.Range(func(k, _ any) bool {
		if key, ok := k.(string); ok && strings.HasPrefix(key, prefix) {
			keysToDelete = append(keysToDelete, key)
		}
		return true
	})

	for _, key := range keysToDelete {
		// Failed deletions leave a stale entry behind until its TTL; the registry
		// entry is dropped either way so the key can be re-tracked.
		_ = c.cache.Delete(ctx, key)
		c.keyRegistry.Delete(key)
	}
}

// invalidateInstance drops the cached snapshot of one top-level instance plus the
// instance listing, which any create/remove affects.
func (c *CachedManager) invalidateInstance(ctx context.Context, realm, name string) {
	if realm == "" {
		c.invalidateByPrefix(ctx, c.keySerializer.SerializeKey(keyGlobalConfig, name))
	} else {
		c.invalidateByPrefix(ctx, c.keySerializer.SerializeKey(keyOrganizationConfig, realm, name))
	}
	c.invalidateByPrefix(ctx, keyInstanceNames)
}

// invalidateSubtree drops every cached sub-config entry for the realm. Sub-config
// writes can shift listings at several levels, so the whole family goes.
func (c *CachedManager) invalidateSubtree(ctx context.Context, realm string) {
	c.invalidateByPrefix(ctx, c.keySerializer.SerializeKey(keySubConfig, realm))
	c.invalidateByPrefix(ctx, c.keySerializer.SerializeKey(keySubConfigNames, realm))
}
