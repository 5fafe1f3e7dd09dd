// Package configinfra implements the service config tree on a bun-managed SQL
// database and fans out realm change notifications to registered listeners.
package configinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/gravitational/trace"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-realm-services/resource"
	"github.com/goliatone/go-realm-services/sms"
)

// configNode is the storage model for one node of the config tree. Top-level
// instances have an empty parent; sub-configs point at the slash-joined path of
// their parent instance. Global-scope nodes store an empty realm.
type configNode struct {
	bun.BaseModel `bun:"table:service_configs,alias:sc"`

	ID         int64  `bun:"id,pk,autoincrement"`
	Realm      string `bun:"realm,notnull,default:''"`
	Parent     string `bun:"parent,notnull,default:''"`
	Name       string `bun:"name,notnull"`
	SchemaID   string `bun:"schema_id,notnull,default:''"`
	Attributes string `bun:"attributes,notnull"`
}

// Store is a sms.ConfigStore backed by bun.
type Store struct {
	db     *bun.DB
	logger *slog.Logger

	mu        sync.RWMutex
	listeners []sms.ChangeListener
}

var _ sms.ConfigStore = (*Store)(nil)

// NewStore creates the store and its backing table if absent.
func NewStore(ctx context.Context, db *bun.DB, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, trace.BadParameter("db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := db.NewCreateTable().Model((*configNode)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Store{db: db, logger: logger}, nil
}

// RegisterListener implements sms.ChangeNotifier.
func (s *Store) RegisterListener(listener sms.ChangeListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// notify delivers a change notification for realm to every listener. Global-scope
// changes map to the root realm; there is no finer-grained scope for them.
func (s *Store) notify(realm string) {
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
func (s *Store) CreateGlobalConfig(ctx context.Context, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	return s.create(ctx, "", nil, name, "", attrs)
}

// CreateOrganizationConfig implements sms.ConfigManager.
func (s *Store) CreateOrganizationConfig(ctx context.Context, realm, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	if realm == "" {
		return nil, trace.BadParameter("realm is required")
	}
	return s.create(ctx, realm, nil, name, "", attrs)
}

// GlobalConfig implements sms.ConfigManager.
func (s *Store) GlobalConfig(ctx context.Context, name string) (*sms.ServiceConfig, error) {
	return s.get(ctx, "", nil, name)
}

// OrganizationConfig implements sms.ConfigManager.
func (s *Store) OrganizationConfig(ctx context.Context, realm, name string) (*sms.ServiceConfig, error) {
	return s.get(ctx, realm, nil, name)
}

// SetAttributes implements sms.ConfigManager.
func (s *Store) SetAttributes(ctx context.Context, realm, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	return s.set(ctx, realm, nil, name, attrs)
}

// RemoveGlobalConfig implements sms.ConfigManager.
func (s *Store) RemoveGlobalConfig(ctx context.Context, name string) error {
	return s.remove(ctx, "", nil, name)
}

// RemoveOrganizationConfig implements sms.ConfigManager.
func (s *Store) RemoveOrganizationConfig(ctx context.Context, realm, name string) error {
	return s.remove(ctx, realm, nil, name)
}

// InstanceNames implements sms.ConfigManager.
func (s *Store) InstanceNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*configNode)(nil)).
		Column("name").
		Where("parent = ''").
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return names, nil
}

// AddSubConfig implements sms.ConfigManager.
func (s *Store) AddSubConfig(ctx context.Context, realm string, parent []string, name, schemaID string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	if len(parent) == 0 {
		return nil, trace.BadParameter("parent config path is required")
	}
	if _, err := s.get(ctx, realm, parent[:len(parent)-1], parent[len(parent)-1]); err != nil {
		return nil, trace.Wrap(err)
	}
	return s.create(ctx, realm, parent, name, schemaID, attrs)
}

// SubConfig implements sms.ConfigManager.
func (s *Store) SubConfig(ctx context.Context, realm string, parent []string, name string) (*sms.ServiceConfig, error) {
	return s.get(ctx, realm, parent, name)
}

// SubConfigNames implements sms.ConfigManager.
func (s *Store) SubConfigNames(ctx context.Context, realm string, parent []string, schemaID string) ([]string, error) {
	var names []string
	err := s.db.NewSelect().
		Model((*configNode)(nil)).
		Column("name").
		Where("realm = ?", realm).
		Where("parent = ?", sms.JoinPath(parent...)).
		Where("schema_id = ?", schemaID).
		Order("name ASC").
		Scan(ctx, &names)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return names, nil
}

// SetSubConfigAttributes implements sms.ConfigManager.
func (s *Store) SetSubConfigAttributes(ctx context.Context, realm string, parent []string, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	if len(parent) == 0 {
		return nil, trace.BadParameter("parent config path is required")
	}
	return s.set(ctx, realm, parent, name, attrs)
}

// RemoveSubConfig implements sms.ConfigManager.
func (s *Store) RemoveSubConfig(ctx context.Context, realm string, parent []string, name string) error {
	if len(parent) == 0 {
		return trace.BadParameter("parent config path is required")
	}
	return s.remove(ctx, realm, parent, name)
}

func (s *Store) create(ctx context.Context, realm string, parent []string, name, schemaID string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	if name == "" {
		return nil, trace.BadParameter("config name is required")
	}
	encoded, err := encodeAttributes(attrs)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	parentPath := sms.JoinPath(parent...)
	exists, err := s.exists(ctx, realm, parentPath, name)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if exists {
		return nil, trace.AlreadyExists("config %q already exists", sms.JoinPath(append(parent, name)...))
	}

	node := &configNode{
		Realm:      realm,
		Parent:     parentPath,
		Name:       name,
		SchemaID:   schemaID,
		Attributes: encoded,
	}
	if _, err := s.db.NewInsert().Model(node).Exec(ctx); err != nil {
		return nil, trace.Wrap(err)
	}

	s.logger.Debug("created config node", "realm", realm, "path", nodePath(parent, name))
	s.notify(realm)
	return snapshot(node, parent), nil
}

func (s *Store) get(ctx context.Context, realm string, parent []string, name string) (*sms.ServiceConfig, error) {
	node := new(configNode)
	err := s.db.NewSelect().
		Model(node).
		Where("realm = ?", realm).
		Where("parent = ?", sms.JoinPath(parent...)).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, trace.NotFound("config %q not found", nodePath(parent, name))
		}
		return nil, trace.Wrap(err)
	}
	return snapshot(node, parent), nil
}

func (s *Store) set(ctx context.Context, realm string, parent []string, name string, attrs sms.Attributes) (*sms.ServiceConfig, error) {
	encoded, err := encodeAttributes(attrs)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	res, err := s.db.NewUpdate().
		Model((*configNode)(nil)).
		Set("attributes = ?", encoded).
		Where("realm = ?", realm).
		Where("parent = ?", sms.JoinPath(parent...)).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, trace.NotFound("config %q not found", nodePath(parent, name))
	}

	s.logger.Debug("updated config node", "realm", realm, "path", nodePath(parent, name))
	s.notify(realm)
	return s.get(ctx, realm, parent, name)
}

func (s *Store) remove(ctx context.Context, realm string, parent []string, name string) error {
	path := nodePath(parent, name)
	res, err := s.db.NewDelete().
		Model((*configNode)(nil)).
		Where("realm = ?", realm).
		WhereGroup(" AND ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.
				Where("parent = ? AND name = ?", sms.JoinPath(parent...), name).
				WhereOr("parent = ?", path).
				WhereOr("parent LIKE ?", path+"/%")
		}).
		Exec(ctx)
	if err != nil {
		return trace.Wrap(err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return trace.NotFound("config %q not found", path)
	}

	s.logger.Debug("removed config node", "realm", realm, "path", path)
	s.notify(realm)
	return nil
}

func (s *Store) exists(ctx context.Context, realm, parent, name string) (bool, error) {
	count, err := s.db.NewSelect().
		Model((*configNode)(nil)).
		Where("realm = ?", realm).
		Where("parent = ?", parent).
		Where("name = ?", name).
		Count(ctx)
	if err != nil {
		return false, trace.Wrap(err)
	}
	return count > 0, nil
}

func nodePath(parent []string, name string) string {
	return sms.JoinPath(append(append([]string(nil), parent...), name)...)
}

func snapshot(node *configNode, parent []string) *sms.ServiceConfig {
	attrs, err := decodeAttributes(node.Attributes)
	if err != nil {
		// Stored attributes are always written by encodeAttributes; treat
		// corruption as an empty attribute set rather than failing reads.
		attrs = sms.Attributes{}
	}
	return &sms.ServiceConfig{
		Name:       node.Name,
		Path:       nodePath(parent, node.Name),
		Attributes: attrs,
	}
}

func encodeAttributes(attrs sms.Attributes) (string, error) {
	if attrs == nil {
		attrs = sms.Attributes{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return string(data), nil
}

func decodeAttributes(encoded string) (sms.Attributes, error) {
	attrs := sms.Attributes{}
	if err := json.Unmarshal([]byte(encoded), &attrs); err != nil {
		return nil, trace.Wrap(err)
	}
	return attrs, nil
}
