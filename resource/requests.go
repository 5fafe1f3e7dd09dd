package resource

// ReadRequest asks for a single resource.
type ReadRequest struct {
	// Path is the endpoint the read targets, e.g. "selfservice/forgottenPassword".
	Path string
	// ParentPath names the ancestor config instances when the target lives inside a
	// nested sub-configuration collection. Empty for top-level collections.
	ParentPath []string
}

// ActionRequest invokes a named action against a resource.
type ActionRequest struct {
	Path       string
	Action     string
	Content    map[string]any
	ParentPath []string
}

// CreateRequest adds a new resource to a collection.
type CreateRequest struct {
	// NewResourceID is the client-assigned identifier for the new resource.
	NewResourceID string
	Content       map[string]any
	ParentPath    []string
}

// UpdateRequest replaces the content of an existing resource.
type UpdateRequest struct {
	ResourceID string
	Content    map[string]any
	ParentPath []string
}

// DeleteRequest removes an existing resource.
type DeleteRequest struct {
	ResourceID string
	ParentPath []string
}

// QueryRequest enumerates a collection. Only the unfiltered "true" query is
// supported by the providers in this module; paging parameters are rejected.
type QueryRequest struct {
	// Filter is the query filter expression. "true" matches everything.
	Filter string
	// PagedResultsCookie, PagedResultsOffset and PageSize are carried so providers
	// can reject paged queries explicitly.
	PagedResultsCookie string
	PagedResultsOffset int
	PageSize           int
	ParentPath         []string
}
