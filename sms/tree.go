package sms

import (
	"context"
	"strings"
)

// Attributes is the multi-valued attribute set stored on a config node.
type Attributes map[string][]string

// Clone returns a deep copy of the attribute set.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ServiceConfig is an immutable snapshot of a config node.
type ServiceConfig struct {
	// Name is the node's instance name within its collection.
	Name string
	// Path locates the node within the service tree, e.g. "mail/smtp" for the
	// sub-config "smtp" under the instance "mail".
	Path string
	// Attributes holds the node's stored attributes.
	Attributes Attributes
}

// JoinPath builds a tree path from instance names.
func JoinPath(names ...string) string {
	return strings.Join(names, "/")
}

// ConfigManager is the opaque configuration tree the resource provider and the
// console services operate on. Implementations must return trace-classified errors:
// NotFound for absent nodes and AlreadyExists for duplicate creates.
type ConfigManager interface {
	CreateGlobalConfig(ctx context.Context, name string, attrs Attributes) (*ServiceConfig, error)
	CreateOrganizationConfig(ctx context.Context, realm, name string, attrs Attributes) (*ServiceConfig, error)
	GlobalConfig(ctx context.Context, name string) (*ServiceConfig, error)
	OrganizationConfig(ctx context.Context, realm, name string) (*ServiceConfig, error)
	// SetAttributes replaces the attributes of a top-level instance. An empty realm
	// addresses the global scope.
	SetAttributes(ctx context.Context, realm, name string, attrs Attributes) (*ServiceConfig, error)
	RemoveGlobalConfig(ctx context.Context, name string) error
	RemoveOrganizationConfig(ctx context.Context, realm, name string) error
	// InstanceNames lists every top-level instance name across scopes.
	InstanceNames(ctx context.Context) ([]string, error)

	AddSubConfig(ctx context.Context, realm string, parent []string, name, schemaID string, attrs Attributes) (*ServiceConfig, error)
	SubConfig(ctx context.Context, realm string, parent []string, name string) (*ServiceConfig, error)
	SubConfigNames(ctx context.Context, realm string, parent []string, schemaID string) ([]string, error)
	SetSubConfigAttributes(ctx context.Context, realm string, parent []string, name string, attrs Attributes) (*ServiceConfig, error)
	RemoveSubConfig(ctx context.Context, realm string, parent []string, name string) error
}

// ChangeListener receives realm-scoped configuration change notifications.
// Delivery is at-least-once and synchronous with the mutation.
type ChangeListener interface {
	ConfigUpdate(realm string)
}

// ChangeListenerFunc adapts a function to the ChangeListener interface.
type ChangeListenerFunc func(realm string)

// ConfigUpdate implements ChangeListener.
func (f ChangeListenerFunc) ConfigUpdate(realm string) { f(realm) }

// ChangeNotifier registers listeners for configuration changes.
type ChangeNotifier interface {
	RegisterListener(listener ChangeListener)
}

// ConfigStore is a configuration tree that also emits change notifications.
type ConfigStore interface {
	ConfigManager
	ChangeNotifier
}
