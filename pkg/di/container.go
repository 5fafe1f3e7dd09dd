// Package di provides dependency injection for the console service components.
package di

import (
	"context"
	"log/slog"

	"github.com/gravitational/trace"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-realm-services/audit"
	"github.com/goliatone/go-realm-services/cache"
	"github.com/goliatone/go-realm-services/internal/configinfra"
	"github.com/goliatone/go-realm-services/selfservice"
	"github.com/goliatone/go-realm-services/sms"
	"github.com/goliatone/go-realm-services/smscache"
)

// Config collects the container's tunables.
type Config struct {
	// Cache configures the read-through config cache.
	Cache cache.Config
	// Logger is shared by every component the container builds. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Container manages singleton instances of the cache service and key serializer
// and provides factory methods for the console service components.
type Container struct {
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	config        Config
	logger        *slog.Logger
}

// NewContainer creates a new DI container with the provided configuration.
func NewContainer(config Config) (*Container, error) {
	cacheService, err := cache.NewCacheService(config.Cache)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Container{
		cacheService:  cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
		config:        config,
		logger:        logger,
	}, nil
}

// NewContainerWithDefaults creates a container using default cache configuration.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(Config{Cache: cache.DefaultConfig()})
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Logger returns the container's logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() Config {
	return c.config
}

// NewConfigStore builds the bun-backed config tree store, creating its schema when
// absent.
func (c *Container) NewConfigStore(ctx context.Context, db *bun.DB) (sms.ConfigStore, error) {
	store, err := configinfra.NewStore(ctx, db, c.logger)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return store, nil
}

// NewCachedConfigManager wraps a config manager with the container's read-through
// cache. The result is a drop-in sms.ConfigManager.
func (c *Container) NewCachedConfigManager(base sms.ConfigManager) sms.ConfigManager {
	return smscache.New(base, c.cacheService, c.keySerializer)
}

// NewCollectionProvider builds a collection resource provider for the schema.
func (c *Container) NewCollectionProvider(schema sms.Schema, manager sms.ConfigManager) (*sms.CollectionProvider, error) {
	provider, err := sms.NewCollectionProvider(schema, manager, sms.NewConverter(), c.logger)
	return provider, trace.Wrap(err)
}

// NewDispatcher builds the realm service dispatcher and subscribes it to the
// store's change notifications so realm handlers are evicted when configuration
// changes.
func (c *Container) NewDispatcher(store sms.ConfigStore, consoleInstance string, extractor selfservice.ConsoleConfigExtractor, factory selfservice.ServiceProviderFactory) (*selfservice.Dispatcher, error) {
	configHandler, err := selfservice.NewSMSConsoleConfigHandler(store, consoleInstance)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	dispatcher, err := selfservice.New(configHandler, extractor, factory, selfservice.WithLogger(c.logger))
	if err != nil {
		return nil, trace.Wrap(err)
	}

	store.RegisterListener(dispatcher)
	return dispatcher, nil
}

// NewLegacyAuthenticationAuditor wires the legacy audit translator to its topic
// publishers.
func (c *Container) NewLegacyAuthenticationAuditor(authentication, activity audit.EventPublisher) *audit.LegacyAuthenticationAuditor {
	return audit.NewLegacyAuthenticationAuditor(authentication, activity, c.logger)
}
