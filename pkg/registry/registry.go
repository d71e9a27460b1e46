// Package registry holds the table metadata of a set of models.
//
// A Registry is an explicit value: callers build one, register their models
// and pass it to whatever needs the schema. There is no package-level instance.
package registry

import (
	"fmt"
	"maps"
	"reflect"
	"sort"
	"sync"

	"github.com/marshallshelly/holonet/pkg/schema"
)

// Registry is a thread-safe registry for table metadata.
type Registry struct {
	mu     sync.RWMutex
	parser *schema.Parser
	tables map[reflect.Type]*schema.TableMetadata
	names  map[string]*schema.TableMetadata
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		parser: schema.NewParser(),
		tables: make(map[reflect.Type]*schema.TableMetadata),
		names:  make(map[string]*schema.TableMetadata),
	}
}

// Register registers a model type and extracts its metadata.
func (r *Registry) Register(model any) error {
	modelType := reflect.TypeOf(model)
	if modelType == nil {
		return fmt.Errorf("model must be a struct, got nil")
	}
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return fmt.Errorf("model must be a struct, got %s", modelType.Kind())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tables[modelType]; ok {
		return nil
	}

	table, err := r.parser.Parse(modelType)
	if err != nil {
		return fmt.Errorf("failed to parse model %s: %w", modelType.Name(), err)
	}

	if existing, ok := r.names[table.Name]; ok {
		return fmt.Errorf("table %s already registered by %s", table.Name, existing.GoType.Name())
	}

	r.tables[modelType] = table
	r.names[table.Name] = table

	return nil
}

// RegisterAll registers each model in turn, stopping at the first error.
func (r *Registry) RegisterAll(models ...any) error {
	for _, m := range models {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves TableMetadata by Go type.
func (r *Registry) Get(modelType reflect.Type) (*schema.TableMetadata, error) {
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	table, ok := r.tables[modelType]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("model type %s not registered", modelType.Name())
	}

	return table, nil
}

// GetByName retrieves TableMetadata by table name.
func (r *Registry) GetByName(tableName string) (*schema.TableMetadata, error) {
	r.mu.RLock()
	table, ok := r.names[tableName]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("table %s not registered", tableName)
	}

	return table, nil
}

// GetOrRegister retrieves TableMetadata or registers it if not found.
func (r *Registry) GetOrRegister(model any) (*schema.TableMetadata, error) {
	modelType := reflect.TypeOf(model)
	if modelType == nil {
		return nil, fmt.Errorf("model must be a struct, got nil")
	}
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	table, ok := r.tables[modelType]
	r.mu.RUnlock()

	if ok {
		return table, nil
	}

	if err := r.Register(model); err != nil {
		return nil, err
	}

	return r.Get(modelType)
}

// Has checks if a model type is registered.
func (r *Registry) Has(modelType reflect.Type) bool {
	for modelType.Kind() == reflect.Pointer {
		modelType = modelType.Elem()
	}

	r.mu.RLock()
	_, ok := r.tables[modelType]
	r.mu.RUnlock()

	return ok
}

// HasTable checks if a table name is registered.
func (r *Registry) HasTable(tableName string) bool {
	r.mu.RLock()
	_, ok := r.names[tableName]
	r.mu.RUnlock()

	return ok
}

// AllNames returns all registered table names, sorted.
func (r *Registry) AllNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// GetAllTables returns all registered tables keyed by table name.
func (r *Registry) GetAllTables() map[string]*schema.TableMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tables := make(map[string]*schema.TableMetadata, len(r.names))
	maps.Copy(tables, r.names)

	return tables
}

// Validate runs whole-schema validation over the registered tables.
func (r *Registry) Validate() error {
	return schema.Validate(r.GetAllTables())
}

// InDependencyOrder returns the registered tables ordered so that every
// table comes after the tables its foreign keys reference. Ties are broken
// by name. References to unregistered tables are ignored.
func (r *Registry) InDependencyOrder() ([]*schema.TableMetadata, error) {
	return SortByDependency(r.GetAllTables())
}

// SortByDependency orders tables so referenced tables come first.
func SortByDependency(tables map[string]*schema.TableMetadata) ([]*schema.TableMetadata, error) {
	indegree := make(map[string]int, len(tables))
	dependents := make(map[string][]string)
	for name, table := range tables {
		if _, ok := indegree[name]; !ok {
			indegree[name] = 0
		}
		for _, ref := range table.References() {
			if _, ok := tables[ref]; !ok {
				continue
			}
			indegree[name]++
			dependents[ref] = append(dependents[ref], name)
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]*schema.TableMetadata, 0, len(tables))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, tables[name])

		next := dependents[name]
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
				sort.Strings(ready)
			}
		}
	}

	if len(ordered) != len(tables) {
		var cyclic []string
		for name, deg := range indegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, fmt.Errorf("foreign key cycle between tables %v", cyclic)
	}

	return ordered, nil
}

// Clear removes all registered models.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables = make(map[reflect.Type]*schema.TableMetadata)
	r.names = make(map[string]*schema.TableMetadata)
}
