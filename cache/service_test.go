package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// stubCacheService stores values in a plain map. It gives the generic wrapper a
// backend whose contents the tests fully control.
type stubCacheService struct {
	mu      sync.Mutex
	entries map[string]any
	err     error
}

func newStubCacheService() *stubCacheService {
	return &stubCacheService{entries: make(map[string]any)}
}

func (s *stubCacheService) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.entries[key]; ok {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.entries[key] = v
	return v, nil
}

func (s *stubCacheService) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *stubCacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	return nil
}

type account struct {
	Name string
}

func TestGetOrFetch_ReturnsTypedValue(t *testing.T) {
	service := newStubCacheService()
	ctx := context.Background()

	fetches := 0
	fetch := func(ctx context.Context) (*account, error) {
		fetches++
		return &account{Name: "alice"}, nil
	}

	got, err := GetOrFetch(ctx, service, "account::alice", fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Name != "alice" {
		t.Errorf("expected the fetched account but got %+v", got)
	}

	got, err = GetOrFetch(ctx, service, "account::alice", fetch)
	if err != nil {
		t.Fatalf("unexpected error on cached read: %v", err)
	}
	if got == nil || got.Name != "alice" {
		t.Errorf("expected the cached account but got %+v", got)
	}
	if fetches != 1 {
		t.Errorf("expected a single fetch but got %d", fetches)
	}
}

func TestGetOrFetch_PropagatesFetchError(t *testing.T) {
	service := newStubCacheService()
	ctx := context.Background()

	wantErr := errors.New("boom")
	got, err := GetOrFetch(ctx, service, "k", func(ctx context.Context) (*account, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected the fetch error but got: %v", err)
	}
	if got != nil {
		t.Errorf("expected a nil result but got %+v", got)
	}
}

func TestGetOrFetch_NilResultYieldsZeroValue(t *testing.T) {
	service := newStubCacheService()
	ctx := context.Background()

	got, err := GetOrFetch(ctx, service, "k", func(ctx context.Context) (*account, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil but got %+v", got)
	}
}

func TestGetOrFetch_TypeMismatchFails(t *testing.T) {
	service := newStubCacheService()
	ctx := context.Background()

	// Seed the key with a string, then read it back as a struct pointer.
	if _, err := GetOrFetch(ctx, service, "shared", func(ctx context.Context) (string, error) {
		return "not an account", nil
	}); err != nil {
		t.Fatalf("seeding the cache failed: %v", err)
	}

	got, err := GetOrFetch(ctx, service, "shared", func(ctx context.Context) (*account, error) {
		return &account{Name: "bob"}, nil
	})
	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	if got != nil {
		t.Errorf("expected a nil result but got %+v", got)
	}
}

func TestGetOrFetch_BackendErrorWins(t *testing.T) {
	service := newStubCacheService()
	service.err = errors.New("backend unavailable")
	ctx := context.Background()

	_, err := GetOrFetch(ctx, service, "k", func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if !errors.Is(err, service.err) {
		t.Errorf("expected the backend error but got: %v", err)
	}
}
