package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"

	"github.com/gravitational/trace"

	"github.com/goliatone/go-realm-services/resource"
)

// SchemaType scopes a service schema.
type SchemaType int

const (
	// SchemaTypeGlobal addresses configuration shared by every realm.
	SchemaTypeGlobal SchemaType = iota
	// SchemaTypeOrganization addresses configuration owned by a single realm.
	SchemaTypeOrganization
)

// String implements fmt.Stringer.
func (t SchemaType) String() string {
	switch t {
	case SchemaTypeGlobal:
		return "global"
	case SchemaTypeOrganization:
		return "organization"
	default:
		return fmt.Sprintf("schemaType(%d)", int(t))
	}
}

// Schema describes the slice of the service config tree a provider exposes.
type Schema struct {
	// ServiceName is the service the schema belongs to.
	ServiceName string
	// Type selects global or organization scope.
	Type SchemaType
	// SubSchemaPath names the schema nodes below the top level. Empty means the
	// provider manages top-level instances; otherwise the last element is the
	// schema ID of the sub-configs being managed.
	SubSchemaPath []string
	// ResourcePath is the URI path the collection is mounted at.
	ResourcePath string
}

// nested reports whether the schema addresses a sub-configuration collection.
func (s Schema) nested() bool { return len(s.SubSchemaPath) > 0 }

// lastSchemaNode is the schema ID sub-configs are created under.
func (s Schema) lastSchemaNode() string {
	return s.SubSchemaPath[len(s.SubSchemaPath)-1]
}

// CollectionProvider maps collection-style CRUD and query requests onto the config
// tree. It performs no caching of its own; wrap the manager with smscache when
// read traffic warrants it.
type CollectionProvider struct {
	schema    Schema
	manager   ConfigManager
	converter *Converter
	logger    *slog.Logger
}

var _ resource.CollectionHandler = (*CollectionProvider)(nil)

// NewCollectionProvider creates a provider for the given schema. Only global and
// organization schemas are supported.
func NewCollectionProvider(schema Schema, manager ConfigManager, converter *Converter, logger *slog.Logger) (*CollectionProvider, error) {
	if schema.Type != SchemaTypeGlobal && schema.Type != SchemaTypeOrganization {
		return nil, trace.BadParameter("unsupported schema type: %v", schema.Type)
	}
	if manager == nil {
		return nil, trace.BadParameter("config manager is required")
	}
	if converter == nil {
		converter = NewConverter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectionProvider{
		schema:    schema,
		manager:   manager,
		converter: converter,
		logger:    logger.With("service", schema.ServiceName, "schema", schema.Type.String()),
	}, nil
}

// realmFor resolves the realm a request operates on. Global schemas always
// address the global scope, which the manager models as an empty realm.
func (p *CollectionProvider) realmFor(ctx context.Context) string {
	if p.schema.Type == SchemaTypeGlobal {
		return ""
	}
	return resource.RealmFromContext(ctx)
}

func (p *CollectionProvider) parentPath(parent []string) ([]string, error) {
	if !p.schema.nested() {
		return nil, nil
	}
	if len(parent) == 0 {
		return nil, trace.BadParameter("nested schema %q requires a parent config path", p.schema.lastSchemaNode())
	}
	return parent, nil
}

// CreateInstance adds a new config instance or sub-config.
func (p *CollectionProvider) CreateInstance(ctx context.Context, request resource.CreateRequest) (*resource.Resource, error) {
	attrs, err := p.converter.FromJSON(request.Content)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var result *ServiceConfig
	if !p.schema.nested() {
		if p.schema.Type == SchemaTypeGlobal {
			result, err = p.manager.CreateGlobalConfig(ctx, request.NewResourceID, attrs)
		} else {
			result, err = p.manager.CreateOrganizationConfig(ctx, p.realmFor(ctx), request.NewResourceID, attrs)
		}
	} else {
		parent, perr := p.parentPath(request.ParentPath)
		if perr != nil {
			return nil, trace.Wrap(perr)
		}
		name := request.NewResourceID
		if raw, ok := request.Content[NameField]; ok {
			content, sok := raw.(string)
			if !sok {
				return nil, trace.BadParameter("name must be a string")
			}
			if content != request.NewResourceID {
				return nil, trace.BadParameter("name and URI's resource ID do not match")
			}
			name = content
		}
		realm := p.realmFor(ctx)
		if _, err = p.manager.AddSubConfig(ctx, realm, parent, name, p.schema.lastSchemaNode(), attrs); err == nil {
			result, err = p.manager.SubConfig(ctx, realm, parent, name)
		}
	}
	if err != nil {
		p.logger.Warn("unable to create SMS config", "error", err)
		return nil, trace.Wrap(err, "unable to create SMS config")
	}

	return p.toResource(result), nil
}

// ReadInstance returns a single config instance or sub-config.
func (p *CollectionProvider) ReadInstance(ctx context.Context, resourceID string, request resource.ReadRequest) (*resource.Resource, error) {
	result, err := p.lookup(ctx, resourceID, request.ParentPath)
	if err != nil {
		if trace.IsNotFound(err) {
			return nil, trace.Wrap(err)
		}
		p.logger.Warn("unable to read SMS config", "error", err)
		return nil, trace.Wrap(err, "unable to read SMS config")
	}
	return p.toResource(result), nil
}

// UpdateInstance replaces the attributes of an existing instance or sub-config.
func (p *CollectionProvider) UpdateInstance(ctx context.Context, request resource.UpdateRequest) (*resource.Resource, error) {
	attrs, err := p.converter.FromJSON(request.Content)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	var result *ServiceConfig
	if !p.schema.nested() {
		result, err = p.manager.SetAttributes(ctx, p.realmFor(ctx), request.ResourceID, attrs)
	} else {
		var parent []string
		parent, err = p.parentPath(request.ParentPath)
		if err == nil {
			result, err = p.manager.SetSubConfigAttributes(ctx, p.realmFor(ctx), parent, request.ResourceID, attrs)
		}
	}
	if err != nil {
		if trace.IsNotFound(err) || trace.IsBadParameter(err) {
			return nil, trace.Wrap(err)
		}
		p.logger.Warn("unable to update SMS config", "error", err)
		return nil, trace.Wrap(err, "unable to update SMS config")
	}

	return p.toResource(result), nil
}

// DeleteInstance removes an instance or sub-config.
func (p *CollectionProvider) DeleteInstance(ctx context.Context, request resource.DeleteRequest) (*resource.Resource, error) {
	var err error
	if !p.schema.nested() {
		if p.schema.Type == SchemaTypeGlobal {
			err = p.manager.RemoveGlobalConfig(ctx, request.ResourceID)
		} else {
			err = p.manager.RemoveOrganizationConfig(ctx, p.realmFor(ctx), request.ResourceID)
		}
	} else {
		var parent []string
		parent, err = p.parentPath(request.ParentPath)
		if err == nil {
			err = p.manager.RemoveSubConfig(ctx, p.realmFor(ctx), parent, request.ResourceID)
		}
	}
	if err != nil {
		if trace.IsNotFound(err) || trace.IsBadParameter(err) {
			return nil, trace.Wrap(err)
		}
		p.logger.Warn("unable to delete SMS config", "error", err)
		return nil, trace.Wrap(err, "unable to delete SMS config")
	}

	return &resource.Resource{
		ID:       request.ResourceID,
		Revision: "0",
		Content:  map[string]any{"success": true},
	}, nil
}

// QueryCollection enumerates the collection. Only the unfiltered "true" query is
// supported and paging is rejected.
func (p *CollectionProvider) QueryCollection(ctx context.Context, request resource.QueryRequest) ([]resource.Resource, error) {
	if request.Filter != "true" {
		return nil, trace.NotImplemented("query not supported: %s", request.Filter)
	}
	if request.PagedResultsCookie != "" || request.PagedResultsOffset > 0 || request.PageSize > 0 {
		return nil, trace.NotImplemented("query paging not currently supported")
	}

	var names []string
	var err error
	if !p.schema.nested() {
		names, err = p.manager.InstanceNames(ctx)
	} else {
		var parent []string
		parent, err = p.parentPath(request.ParentPath)
		if err == nil {
			names, err = p.manager.SubConfigNames(ctx, p.realmFor(ctx), parent, p.schema.lastSchemaNode())
		}
	}
	if err != nil {
		if trace.IsBadParameter(err) {
			return nil, trace.Wrap(err)
		}
		p.logger.Warn("unable to query SMS config", "error", err)
		return nil, trace.Wrap(err, "unable to query SMS config")
	}
	sort.Strings(names)

	results := make([]resource.Resource, 0, len(names))
	for _, name := range names {
		config, err := p.lookup(ctx, name, request.ParentPath)
		if err != nil {
			// Instances removed between the listing and the read are skipped.
			if trace.IsNotFound(err) {
				continue
			}
			p.logger.Warn("unable to query SMS config", "error", err)
			return nil, trace.Wrap(err, "unable to query SMS config")
		}
		results = append(results, *p.toResource(config))
	}
	return results, nil
}

// ActionInstance rejects every instance action.
func (p *CollectionProvider) ActionInstance(ctx context.Context, resourceID string, request resource.ActionRequest) (*resource.ActionResponse, error) {
	return nil, trace.NotImplemented("%s action not supported", request.Action)
}

// ActionCollection rejects every collection action.
func (p *CollectionProvider) ActionCollection(ctx context.Context, request resource.ActionRequest) (*resource.ActionResponse, error) {
	return nil, trace.NotImplemented("%s action not supported", request.Action)
}

// PatchInstance rejects partial updates.
func (p *CollectionProvider) PatchInstance(ctx context.Context, resourceID string, request resource.UpdateRequest) (*resource.Resource, error) {
	return nil, trace.NotImplemented("patch operation not supported")
}

func (p *CollectionProvider) lookup(ctx context.Context, name string, parentPath []string) (*ServiceConfig, error) {
	if !p.schema.nested() {
		if p.schema.Type == SchemaTypeGlobal {
			return p.manager.GlobalConfig(ctx, name)
		}
		return p.manager.OrganizationConfig(ctx, p.realmFor(ctx), name)
	}
	parent, err := p.parentPath(parentPath)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return p.manager.SubConfig(ctx, p.realmFor(ctx), parent, name)
}

// toResource renders a config snapshot as a resource, injecting the instance name
// into the content alongside the stored attributes.
func (p *CollectionProvider) toResource(config *ServiceConfig) *resource.Resource {
	content := p.converter.ToJSON(config.Attributes)
	content[NameField] = config.Name
	return &resource.Resource{
		ID:       config.Name,
		Revision: revisionOf(content),
		Content:  content,
	}
}

// revisionOf derives a revision from the canonical JSON rendering of the content.
func revisionOf(content map[string]any) string {
	data, err := json.Marshal(content)
	if err != nil {
		return "0"
	}
	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("%d", h.Sum64())
}
