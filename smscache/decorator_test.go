package smscache

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/gravitational/trace"

	"github.com/goliatone/go-realm-services/cache"
	"github.com/goliatone/go-realm-services/sms"
)

// mapCacheService is a deliberately simple CacheService used to observe the
// decorator's read-through and invalidation behaviour.
type mapCacheService struct {
	mu      sync.Mutex
	entries map[string]any
}

func newMapCacheService() *mapCacheService {
	return &mapCacheService{entries: make(map[string]any)}
}

func (s *mapCacheService) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error) {
	s.mu.Lock()
	if v, ok := s.entries[key]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
	return v, nil
}

func (s *mapCacheService) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *mapCacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

// mockManager records method calls and returns canned results.
type mockManager struct {
	mu      sync.Mutex
	calls   []string
	configs map[string]*sms.ServiceConfig
	names   []string
}

func newMockManager() *mockManager {
	return &mockManager{configs: make(map[string]*sms.ServiceConfig)}
}

func (m *mockManager) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

func (m *mockManager) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, call := range m.calls {
		if call == method {
			count++
		}
	}
	return count
}

func (m *mockManager) CreateGlobalConfig(ctx context.Context, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	m.recordCall("CreateGlobalConfig")
	return &sms.ServiceConfig{Name: name, Attributes: attrs}, nil
}

func (m *mockManager) CreateOrganizationConfig(ctx context.Context, realm, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	m.recordCall("CreateOrganizationConfig")
	return &sms.ServiceConfig{Name: name, Attributes: attrs}, nil
}

func (m *mockManager) GlobalConfig(ctx context.Context, name string) (*sms.ServiceConfig, error) {
	m.recordCall("GlobalConfig")
	if config, ok := m.configs[name]; ok {
		return config, nil
	}
	return nil, trace.NotFound("config %q not found", name)
}

func (m *mockManager) OrganizationConfig(ctx context.Context, realm, name string) (*sms.ServiceConfig, error) {
	m.recordCall("OrganizationConfig")
	if config, ok := m.configs[realm+":"+name]; ok {
		return config, nil
	}
	return nil, trace.NotFound("config %q not found", name)
}

func (m *mockManager) SetAttributes(ctx context.Context, realm, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	m.recordCall("SetAttributes")
	return &sms.ServiceConfig{Name: name, Attributes: attrs}, nil
}

func (m *mockManager) RemoveGlobalConfig(ctx context.Context, name string) error {
	m.recordCall("RemoveGlobalConfig")
	return nil
}

func (m *mockManager) RemoveOrganizationConfig(ctx context.Context, realm, name string) error {
	m.recordCall("RemoveOrganizationConfig")
	return nil
}

func (m *mockManager) InstanceNames(ctx context.Context) ([]string, error) {
	m.recordCall("InstanceNames")
	return m.names, nil
}

func (m *mockManager) AddSubConfig(ctx context.Context, realm string, parent []string, name, schemaID string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	m.recordCall("AddSubConfig")
	return &sms.ServiceConfig{Name: name, Attributes: attrs}, nil
}

func (m *mockManager) SubConfig(ctx context.Context, realm string, parent []string, name string) (*sms.ServiceConfig, error) {
	m.recordCall("SubConfig")
	return &sms.ServiceConfig{Name: name}, nil
}

func (m *mockManager) SubConfigNames(ctx context.Context, realm string, parent []string, schemaID string) ([]string, error) {
	m.recordCall("SubConfigNames")
	return m.names, nil
}

func (m *mockManager) SetSubConfigAttributes(ctx context.Context, realm string, parent []string, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	m.recordCall("SetSubConfigAttributes")
	return &sms.ServiceConfig{Name: name, Attributes: attrs}, nil
}

func (m *mockManager) RemoveSubConfig(ctx context.Context, realm string, parent []string, name string) error {
	m.recordCall("RemoveSubConfig")
	return nil
}

func newCachedManager() (*CachedManager, *mockManager, *mapCacheService) {
	base := newMockManager()
	service := newMapCacheService()
	return New(base, service, cache.NewDefaultKeySerializer()), base, service
}

func TestOrganizationConfig_ReadThrough(t *testing.T) {
	cached, base, _ := newCachedManager()
	base.configs["/:selfService"] = &sms.ServiceConfig{Name: "selfService"}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cached.OrganizationConfig(ctx, "/", "selfService"); err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
	}

	if got := base.callCount("OrganizationConfig"); got != 1 {
		t.Errorf("expected the base manager to be hit once but got %d", got)
	}
}

func TestOrganizationConfig_DistinctRealmsDistinctKeys(t *testing.T) {
	cached, base, _ := newCachedManager()
	base.configs["/:selfService"] = &sms.ServiceConfig{Name: "selfService"}
	base.configs["/sub:selfService"] = &sms.ServiceConfig{Name: "selfService"}
	ctx := context.Background()

	if _, err := cached.OrganizationConfig(ctx, "/", "selfService"); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if _, err := cached.OrganizationConfig(ctx, "/sub", "selfService"); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if got := base.callCount("OrganizationConfig"); got != 2 {
		t.Errorf("expected one base hit per realm but got %d", got)
	}
}

func TestSetAttributes_InvalidatesCachedInstance(t *testing.T) {
	cached, base, _ := newCachedManager()
	base.configs["/:selfService"] = &sms.ServiceConfig{Name: "selfService"}
	ctx := context.Background()

	if _, err := cached.OrganizationConfig(ctx, "/", "selfService"); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if _, err := cached.SetAttributes(ctx, "/", "selfService", sms.Attributes{"enabled": {"true"}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := cached.OrganizationConfig(ctx, "/", "selfService"); err != nil {
		t.Fatalf("read after write failed: %v", err)
	}

	if got := base.callCount("OrganizationConfig"); got != 2 {
		t.Errorf("expected the write to invalidate the cached read but base saw %d reads", got)
	}
}

func TestCreate_InvalidatesInstanceNames(t *testing.T) {
	cached, base, _ := newCachedManager()
	base.names = []string{"a"}
	ctx := context.Background()

	if _, err := cached.InstanceNames(ctx); err != nil {
		t.Fatalf("listing failed: %v", err)
	}
	if _, err := cached.CreateOrganizationConfig(ctx, "/", "b", nil); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := cached.InstanceNames(ctx); err != nil {
		t.Fatalf("listing after create failed: %v", err)
	}

	if got := base.callCount("InstanceNames"); got != 2 {
		t.Errorf("expected the create to invalidate the listing but base saw %d calls", got)
	}
}

func TestSubConfigWrites_InvalidateSubtree(t *testing.T) {
	cached, base, _ := newCachedManager()
	base.names = []string{"welcome"}
	ctx := context.Background()
	parent := []string{"email"}

	if _, err := cached.SubConfigNames(ctx, "/", parent, "emailTemplates"); err != nil {
		t.Fatalf("listing failed: %v", err)
	}
	if _, err := cached.SubConfig(ctx, "/", parent, "welcome"); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if _, err := cached.AddSubConfig(ctx, "/", parent, "reset", "emailTemplates", nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := cached.SubConfigNames(ctx, "/", parent, "emailTemplates"); err != nil {
		t.Fatalf("listing after write failed: %v", err)
	}
	if _, err := cached.SubConfig(ctx, "/", parent, "welcome"); err != nil {
		t.Fatalf("read after write failed: %v", err)
	}

	if got := base.callCount("SubConfigNames"); got != 2 {
		t.Errorf("expected the write to invalidate sub-config listings but base saw %d calls", got)
	}
	if got := base.callCount("SubConfig"); got != 2 {
		t.Errorf("expected the write to invalidate sub-config reads but base saw %d calls", got)
	}
}

func TestReadErrors_AreNotCached(t *testing.T) {
	cached, base, _ := newCachedManager()
	ctx := context.Background()

	if _, err := cached.GlobalConfig(ctx, "missing"); !trace.IsNotFound(err) {
		t.Fatalf("expected a not-found error but got: %v", err)
	}
	if _, err := cached.GlobalConfig(ctx, "missing"); !trace.IsNotFound(err) {
		t.Fatalf("expected a not-found error but got: %v", err)
	}

	if got := base.callCount("GlobalConfig"); got != 2 {
		t.Errorf("expected errors to bypass the cache but base saw %d reads", got)
	}
}
