package resource

import "context"

// Resource is a single addressable resource returned by read-style operations.
type Resource struct {
	// ID is the resource identifier within its collection.
	ID string
	// Revision changes whenever the resource content changes.
	Revision string
	// Content is the JSON-shaped body of the resource.
	Content map[string]any
}

// ActionResponse carries the JSON-shaped result of an action.
type ActionResponse struct {
	Content map[string]any
}

// RequestHandler serves read and action requests. It is the contract the realm
// service dispatcher caches and delegates to.
type RequestHandler interface {
	HandleRead(ctx context.Context, request ReadRequest) (*Resource, error)
	HandleAction(ctx context.Context, request ActionRequest) (*ActionResponse, error)
}

// CollectionHandler is the full CRUDPAQ surface of a collection resource provider.
type CollectionHandler interface {
	CreateInstance(ctx context.Context, request CreateRequest) (*Resource, error)
	ReadInstance(ctx context.Context, resourceID string, request ReadRequest) (*Resource, error)
	UpdateInstance(ctx context.Context, request UpdateRequest) (*Resource, error)
	DeleteInstance(ctx context.Context, request DeleteRequest) (*Resource, error)
	QueryCollection(ctx context.Context, request QueryRequest) ([]Resource, error)
	ActionInstance(ctx context.Context, resourceID string, request ActionRequest) (*ActionResponse, error)
	ActionCollection(ctx context.Context, request ActionRequest) (*ActionResponse, error)
	PatchInstance(ctx context.Context, resourceID string, request UpdateRequest) (*Resource, error)
}
