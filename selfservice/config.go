package selfservice

import (
	"context"

	"github.com/goliatone/go-realm-services/resource"
	"github.com/goliatone/go-realm-services/sms"
)

// ConsoleConfig is a realm-specific configuration value controlling whether and
// how a console service operates. Its concrete shape belongs to the provider that
// consumes it, so it stays opaque here.
type ConsoleConfig = any

// ConsoleConfigExtractor turns a realm's raw config attributes into the console
// configuration object a service provider understands.
type ConsoleConfigExtractor interface {
	Extract(attrs sms.Attributes) (ConsoleConfig, error)
}

// ConsoleConfigHandler resolves per-realm console configuration. Lookup failures
// propagate to the caller as-is.
type ConsoleConfigHandler interface {
	GetConfig(ctx context.Context, realm string, extractor ConsoleConfigExtractor) (ConsoleConfig, error)
}

// ServiceProvider is the strategy object that, given configuration, determines
// feature enablement and builds the concrete request handler for a realm.
type ServiceProvider interface {
	IsServiceEnabled(config ConsoleConfig) bool
	Service(ctx context.Context, config ConsoleConfig, realm string) (resource.RequestHandler, error)
}

// ServiceProviderFactory resolves the provider matching a configuration shape.
type ServiceProviderFactory interface {
	Provider(config ConsoleConfig) (ServiceProvider, error)
}

// RealmResolver extracts the realm a request is scoped to. It is pure; requests
// without an explicit realm resolve to the root realm.
type RealmResolver func(ctx context.Context) string
