// Package testsupport provides in-memory collaborators and recording doubles used
// by tests and the example program.
package testsupport

import (
	"context"
	"sort"
	"sync"

	"github.com/gravitational/trace"

	"github.com/goliatone/go-realm-services/audit"
	"github.com/goliatone/go-realm-services/resource"
	"github.com/goliatone/go-realm-services/selfservice"
	"github.com/goliatone/go-realm-services/sms"
)

// MemoryConfigStore is an in-memory sms.ConfigStore with the same contract as the
// bun-backed store: trace-classified errors and synchronous change notifications.
type MemoryConfigStore struct {
	mu        sync.RWMutex
	nodes     map[nodeKey]*memoryNode
	listeners []sms.ChangeListener
}

type nodeKey struct {
	realm  string
	parent string
	name   string
}

type memoryNode struct {
	schemaID string
	attrs    sms.Attributes
}

var _ sms.ConfigStore = (*MemoryConfigStore)(nil)

// NewMemoryConfigStore creates an empty store.
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{nodes: make(map[nodeKey]*memoryNode)}
}

// RegisterListener implements sms.ChangeNotifier.
func (s *MemoryConfigStore) RegisterListener(listener sms.ChangeListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *MemoryConfigStore) notify(realm string) {
	if realm == "" {
		realm = resource.RootRealm
	}
	s.mu.RLock()
	listeners := append([]sms.ChangeListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, listener := range listeners {
		listener.ConfigUpdate(realm)
	}
}

// CreateGlobalConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) CreateGlobalConfig(ctx context.Context, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	return s.create("", nil, name, "", attrs)
}

// CreateOrganizationConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) CreateOrganizationConfig(ctx context.Context, realm, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	if realm == "" {
		return nil, trace.BadParameter("realm is required")
	}
	return s.create(realm, nil, name, "", attrs)
}

// GlobalConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) GlobalConfig(ctx context.Context, name string) (*sms.ServiceConfig, error) {
	return s.get("", nil, name)
}

// OrganizationConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) OrganizationConfig(ctx context.Context, realm, name string) (*sms.ServiceConfig, error) {
	return s.get(realm, nil, name)
}

// SetAttributes implements sms.ConfigManager.
func (s *MemoryConfigStore) SetAttributes(ctx context.Context, realm, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	return s.set(realm, nil, name, attrs)
}

// RemoveGlobalConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) RemoveGlobalConfig(ctx context.Context, name string) error {
	return s.remove("", nil, name)
}

// RemoveOrganizationConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) RemoveOrganizationConfig(ctx context.Context, realm, name string) error {
	return s.remove(realm, nil, name)
}

// InstanceNames implements sms.ConfigManager.
func (s *MemoryConfigStore) InstanceNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for key := range s.nodes {
		if key.parent == "" {
			names = append(names, key.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// AddSubConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) AddSubConfig(ctx context.Context, realm string, parent []string, name, schemaID string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	if len(parent) == 0 {
		return nil, trace.BadParameter("parent config path is required")
	}
	if _, err := s.get(realm, parent[:len(parent)-1], parent[len(parent)-1]); err != nil {
		return nil, trace.Wrap(err)
	}
	return s.create(realm, parent, name, schemaID, attrs)
}

// SubConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) SubConfig(ctx context.Context, realm string, parent []string, name string) (*sms.ServiceConfig, error) {
	return s.get(realm, parent, name)
}

// SubConfigNames implements sms.ConfigManager.
func (s *MemoryConfigStore) SubConfigNames(ctx context.Context, realm string, parent []string, schemaID string) ([]string, error) {
	parentPath := sms.JoinPath(parent...)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for key, node := range s.nodes {
		if key.realm == realm && key.parent == parentPath && node.schemaID == schemaID {
			names = append(names, key.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// SetSubConfigAttributes implements sms.ConfigManager.
func (s *MemoryConfigStore) SetSubConfigAttributes(ctx context.Context, realm string, parent []string, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	if len(parent) == 0 {
		return nil, trace.BadParameter("parent config path is required")
	}
	return s.set(realm, parent, name, attrs)
}

// RemoveSubConfig implements sms.ConfigManager.
func (s *MemoryConfigStore) RemoveSubConfig(ctx context.Context, realm string, parent []string, name string) error {
	if len(parent) == 0 {
		return trace.BadParameter("parent config path is required")
	}
	return s.remove(realm, parent, name)
}

func (s *MemoryConfigStore) create(realm string, parent []string, name, schemaID string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	if name == "" {
		return nil, trace.BadParameter("config name is required")
	}
	key := nodeKey{realm: realm, parent: sms.JoinPath(parent...), name: name}

	s.mu.Lock()
	if _, exists := s.nodes[key]; exists {
		s.mu.Unlock()
		return nil, trace.AlreadyExists("config %q already exists", name)
	}
	s.nodes[key] = &memoryNode{schemaID: schemaID, attrs: attrs.Clone()}
	s.mu.Unlock()

	s.notify(realm)
	return s.snapshot(key), nil
}

func (s *MemoryConfigStore) get(realm string, parent []string, name string) (*sms.ServiceConfig, error) {
	key := nodeKey{realm: realm, parent: sms.JoinPath(parent...), name: name}
	s.mu.RLock()
	_, exists := s.nodes[key]
	s.mu.RUnlock()
	if !exists {
		return nil, trace.NotFound("config %q not found", name)
	}
	return s.snapshot(key), nil
}

func (s *MemoryConfigStore) set(realm string, parent []string, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	key := nodeKey{realm: realm, parent: sms.JoinPath(parent...), name: name}

	s.mu.Lock()
	node, exists := s.nodes[key]
	if !exists {
		s.mu.Unlock()
		return nil, trace.NotFound("config %q not found", name)
	}
	node.attrs = attrs.Clone()
	s.mu.Unlock()

	s.notify(realm)
	return s.snapshot(key), nil
}

func (s *MemoryConfigStore) remove(realm string, parent []string, name string) error {
	key := nodeKey{realm: realm, parent: sms.JoinPath(parent...), name: name}
	path := sms.JoinPath(append(append([]string(nil), parent...), name)...)

	s.mu.Lock()
	if _, exists := s.nodes[key]; !exists {
		s.mu.Unlock()
		return trace.NotFound("config %q not found", name)
	}
	delete(s.nodes, key)
	// Drop descendants along with the node.
	for k := range s.nodes {
		if k.realm == realm && (k.parent == path || len(k.parent) > len(path) && k.parent[:len(path)+1] == path+"/") {
			delete(s.nodes, k)
		}
	}
	s.mu.Unlock()

	s.notify(realm)
	return nil
}

func (s *MemoryConfigStore) snapshot(key nodeKey) *sms.ServiceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node := s.nodes[key]
	if node == nil {
		return nil
	}
	path := key.name
	if key.parent != "" {
		path = key.parent + "/" + key.name
	}
	return &sms.ServiceConfig{Name: key.name, Path: path, Attributes: node.attrs.Clone()}
}

// StaticExtractor returns the attributes it is given, untouched. Tests that only
// care about enablement flags can read them straight off the map.
type StaticExtractor struct{}

// Extract implements selfservice.ConsoleConfigExtractor.
func (StaticExtractor) Extract(attrs sms.Attributes) (selfservice.ConsoleConfig, error) {
	return attrs, nil
}

// RecordingHandler counts the read and action calls it receives.
type RecordingHandler struct {
	mu          sync.Mutex
	ReadCalls   []resource.ReadRequest
	ActionCalls []resource.ActionRequest
	ReadResult  *resource.Resource
}

var _ resource.RequestHandler = (*RecordingHandler)(nil)

// HandleRead implements resource.RequestHandler.
func (h *RecordingHandler) HandleRead(ctx context.Context, request resource.ReadRequest) (*resource.Resource, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ReadCalls = append(h.ReadCalls, request)
	return h.ReadResult, nil
}

// HandleAction implements resource.RequestHandler.
func (h *RecordingHandler) HandleAction(ctx context.Context, request resource.ActionRequest) (*resource.ActionResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ActionCalls = append(h.ActionCalls, request)
	return &resource.ActionResponse{Content: map[string]any{"status": "ok"}}, nil
}

// ReadCount returns how many reads the handler served.
func (h *RecordingHandler) ReadCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ReadCalls)
}

// StubProvider is a selfservice.ServiceProvider with canned behaviour.
type StubProvider struct {
	Enabled bool
	Handler resource.RequestHandler
	Err     error

	mu           sync.Mutex
	serviceCalls int
}

var _ selfservice.ServiceProvider = (*StubProvider)(nil)

// IsServiceEnabled implements selfservice.ServiceProvider.
func (p *StubProvider) IsServiceEnabled(config selfservice.ConsoleConfig) bool {
	return p.Enabled
}

// Service implements selfservice.ServiceProvider.
func (p *StubProvider) Service(ctx context.Context, config selfservice.ConsoleConfig, realm string) (resource.RequestHandler, error) {
	p.mu.Lock()
	p.serviceCalls++
	p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Handler, nil
}

// ServiceCalls reports how many times the construction path ran.
func (p *StubProvider) ServiceCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.serviceCalls
}

// StubProviderFactory always resolves the same provider.
type StubProviderFactory struct {
	ProviderValue selfservice.ServiceProvider
	Err           error
}

var _ selfservice.ServiceProviderFactory = (*StubProviderFactory)(nil)

// Provider implements selfservice.ServiceProviderFactory.
func (f *StubProviderFactory) Provider(config selfservice.ConsoleConfig) (selfservice.ServiceProvider, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.ProviderValue, nil
}

// RecordingPublisher collects published audit events.
type RecordingPublisher struct {
	mu       sync.Mutex
	Events   []audit.Event
	Err      error
	Auditing bool
}

var _ audit.EventPublisher = (*RecordingPublisher)(nil)

// Publish implements audit.EventPublisher.
func (p *RecordingPublisher) Publish(ctx context.Context, event audit.Event) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}

// IsAuditing implements audit.EventPublisher.
func (p *RecordingPublisher) IsAuditing(realm, topic string) bool {
	return p.Auditing
}

// Published returns a copy of the events recorded so far.
func (p *RecordingPublisher) Published() []audit.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]audit.Event(nil), p.Events...)
}
