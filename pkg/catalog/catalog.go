package catalog

import (
	"sort"
	"sync"
)

// Relation is a foreign-key-like field on one model pointing at another.
type Relation struct {
	// Field is the column holding the referenced primary key.
	Field string

	// Target is the name of the referenced model.
	Target string
}

// Model describes one class of persisted records.
type Model struct {
	// Name is the model type name, e.g. "LogEntry".
	Name string

	// Table is the storage table (or collection) name.
	Table string

	// PrimaryKey is the identifying column. Default: "id"
	PrimaryKey string

	// Fields lists the known columns. Used to validate field-based policies;
	// an empty list disables the check.
	Fields []string

	// Relations lists the fields of this model that point at other models.
	Relations []Relation

	// PurgePolicy is an optional purge policy attached to the model. It is
	// interpreted by package purge; any value that is not a purge.Policy is
	// reported as a configuration error during discovery.
	PurgePolicy any

	// Schema is optional DDL used to bootstrap the table.
	Schema string
}

// Key returns the primary key column name.
func (m *Model) Key() string {
	if m.PrimaryKey == "" {
		return "id"
	}
	return m.PrimaryKey
}

// HasField reports whether the model declares the named field.
// Models without a field list accept every name.
func (m *Model) HasField(name string) bool {
	if len(m.Fields) == 0 {
		return true
	}
	if name == m.Key() {
		return true
	}
	for _, f := range m.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Reference is a relation seen from its target: the Source model's Field
// holds primary keys of the target model.
type Reference struct {
	Source string
	Table  string
	Field  string
}

// Catalog is a thread-safe registry of models.
type Catalog struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		models: make(map[string]*Model),
	}
}

// Default is the process-wide catalog application packages register into.
var Default = New()

// MustRegister registers the model in the Default catalog and panics on error.
func MustRegister(m *Model) {
	if err := Default.Register(m); err != nil {
		panic(err)
	}
}

// Register adds a model. Registering a second model with the same name fails.
func (c *Catalog) Register(m *Model) error {
	if m == nil {
		return &RegistryError{Operation: "register", Message: "model cannot be nil"}
	}
	if m.Name == "" {
		return &RegistryError{Operation: "register", Message: "model name cannot be empty"}
	}
	if m.Table == "" {
		return &RegistryError{Model: m.Name, Operation: "register", Message: "model table cannot be empty"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.models[m.Name]; ok {
		return &RegistryError{Model: m.Name, Operation: "register", Message: "model already registered"}
	}
	c.models[m.Name] = m
	return nil
}

// Lookup returns the model registered under name.
func (c *Catalog) Lookup(name string) (*Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.models[name]
	return m, ok
}

// Models returns all registered models sorted by name.
func (c *Catalog) Models() []*Model {
	c.mu.RLock()
	defer c.mu.RUnlock()

	models := make([]*Model, 0, len(c.models))
	for _, m := range c.models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		return models[i].Name < models[j].Name
	})
	return models
}

// Len returns the number of registered models.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

// ReferencesTo returns every relation field, across all models, that points
// at the named model. The result is sorted by source model then field.
func (c *Catalog) ReferencesTo(name string) []Reference {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var refs []Reference
	for _, m := range c.models {
		for _, rel := range m.Relations {
			if rel.Target != name {
				continue
			}
			refs = append(refs, Reference{
				Source: m.Name,
				Table:  m.Table,
				Field:  rel.Field,
			})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Source != refs[j].Source {
			return refs[i].Source < refs[j].Source
		}
		return refs[i].Field < refs[j].Field
	})
	return refs
}
