package selfservice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gravitational/trace"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-realm-services/resource"
	"github.com/goliatone/go-realm-services/sms"
)

// Dispatcher routes read and action requests to the handler serving the request's
// realm, constructing and caching handlers on demand.
//
// The realm map is the sole shared mutable resource. Reads of existing entries are
// lock-free; construction and eviction serialize on mu, which guarantees at most
// one live handler per realm and that no handler built from pre-invalidation
// configuration survives a ConfigUpdate that preceded its construction.
type Dispatcher struct {
	handlers *xsync.MapOf[string, resource.RequestHandler]
	mu       sync.Mutex

	configHandler   ConsoleConfigHandler
	configExtractor ConsoleConfigExtractor
	providerFactory ServiceProviderFactory
	resolveRealm    RealmResolver
	logger          *slog.Logger
}

var _ sms.ChangeListener = (*Dispatcher)(nil)

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for dispatch-boundary diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRealmResolver replaces how the realm is extracted from a request context.
func WithRealmResolver(resolver RealmResolver) Option {
	return func(d *Dispatcher) {
		if resolver != nil {
			d.resolveRealm = resolver
		}
	}
}

// New constructs a Dispatcher. The caller owns subscribing it to whatever source
// detects configuration changes, e.g. notifier.RegisterListener(dispatcher).
func New(configHandler ConsoleConfigHandler, configExtractor ConsoleConfigExtractor, providerFactory ServiceProviderFactory, opts ...Option) (*Dispatcher, error) {
	if configHandler == nil {
		return nil, trace.BadParameter("console config handler is required")
	}
	if configExtractor == nil {
		return nil, trace.BadParameter("console config extractor is required")
	}
	if providerFactory == nil {
		return nil, trace.BadParameter("service provider factory is required")
	}

	d := &Dispatcher{
		handlers:        xsync.NewMapOf[string, resource.RequestHandler](),
		configHandler:   configHandler,
		configExtractor: configExtractor,
		providerFactory: providerFactory,
		resolveRealm:    resource.RealmFromContext,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// HandleRead resolves the realm's handler and delegates the read to it.
func (d *Dispatcher) HandleRead(ctx context.Context, request resource.ReadRequest) (result *resource.Resource, err error) {
	defer d.recoverDispatch("unable to handle read", &err)

	service, err := d.service(ctx)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return service.HandleRead(ctx, request)
}

// HandleAction resolves the realm's handler and delegates the action to it.
func (d *Dispatcher) HandleAction(ctx context.Context, request resource.ActionRequest) (result *resource.ActionResponse, err error) {
	defer d.recoverDispatch("unable to handle action", &err)

	service, err := d.service(ctx)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return service.HandleAction(ctx, request)
}

// ConfigUpdate discards the cached handler for realm. Invalidating a realm with no
// cached entry is a no-op. Safe to call concurrently with in-flight requests; the
// eviction serializes with construction on the same lock.
func (d *Dispatcher) ConfigUpdate(realm string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers.Delete(realm)
}

// service returns the handler for the request's realm, constructing it if absent.
func (d *Dispatcher) service(ctx context.Context) (resource.RequestHandler, error) {
	realm := d.resolveRealm(ctx)

	// Fast path: concurrent readers never block each other here.
	if service, ok := d.handlers.Load(realm); ok {
		return service, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Another request may have finished constructing this realm's handler while
	// this one waited on the lock.
	if service, ok := d.handlers.Load(realm); ok {
		return service, nil
	}

	service, err := d.createNewService(ctx, realm)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	d.handlers.Store(realm, service)
	return service, nil
}

// createNewService builds a handler from the realm's current console
// configuration. Disabled realms fail before construction and are never cached, so
// a later enablement takes effect on the next request without a notification.
func (d *Dispatcher) createNewService(ctx context.Context, realm string) (resource.RequestHandler, error) {
	consoleConfig, err := d.configHandler.GetConfig(ctx, realm, d.configExtractor)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	serviceProvider, err := d.providerFactory.Provider(consoleConfig)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	if !serviceProvider.IsServiceEnabled(consoleConfig) {
		return nil, trace.NotImplemented("service not configured for realm %q", realm)
	}

	return serviceProvider.Service(ctx, consoleConfig, realm)
}

// recoverDispatch converts panics at the dispatch boundary into internal errors,
// preserving the original cause and logging a diagnostic. Collaborator errors are
// untouched; they keep their classification.
func (d *Dispatcher) recoverDispatch(message string, err *error) {
	r := recover()
	if r == nil {
		return
	}

	cause, ok := r.(error)
	if !ok {
		cause = trace.Errorf("%v", r)
	}
	d.logger.Error(message, "error", cause)
	*err = trace.WrapWithMessage(cause, message)
}
