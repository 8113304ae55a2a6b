package purge

import (
	"sort"
	"sync"
)

// Registry is a thread-safe collection of purgers. Application packages
// register their purgers here instead of the command knowing about them.
type Registry struct {
	mu      sync.RWMutex
	purgers []Purger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry is the process-wide registry used by Register.
var DefaultRegistry = NewRegistry()

// Register adds p to DefaultRegistry. It panics if p is invalid, so that a
// broken purger in an init function fails at startup.
func Register(p Purger) {
	if err := DefaultRegistry.Register(p); err != nil {
		panic(err)
	}
}

// Register adds a purger to the registry. Several purgers may target the
// same model; each becomes its own unit.
func (r *Registry) Register(p Purger) error {
	if p == nil {
		return &RegistryError{Operation: "register", Message: "purger cannot be nil"}
	}
	if p.ModelName() == "" {
		return &RegistryError{Operation: "register", Message: "purger model name cannot be empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgers = append(r.purgers, p)
	return nil
}

// Purgers returns the registered purgers sorted by model name. Purgers of
// the same model keep their registration order.
func (r *Registry) Purgers() []Purger {
	r.mu.RLock()
	defer r.mu.RUnlock()

	purgers := make([]Purger, len(r.purgers))
	copy(purgers, r.purgers)
	sort.SliceStable(purgers, func(i, j int) bool {
		return purgers[i].ModelName() < purgers[j].ModelName()
	})
	return purgers
}

// Len returns the number of registered purgers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.purgers)
}
