package widget

import (
	"fmt"
	"sync"
)

// Registry holds every known widget definition, keyed by ID, in registration order.
// It is populated at startup and read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]*Definition
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
	}
}

// Register validates and adds a definition. Registering an identically shaped
// definition under an existing ID is a no-op; a differently shaped one fails
// with ErrDuplicateDefinition.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return &DefinitionError{Err: fmt.Errorf("%w: definition is nil", ErrInvalidDefinition)}
	}
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.defs[def.ID]; ok {
		if existing.SameShape(def) {
			return nil
		}
		return &DefinitionError{ID: def.ID, Err: ErrDuplicateDefinition}
	}

	r.defs[def.ID] = def
	r.order = append(r.order, def.ID)
	return nil
}

// Get looks up a definition by ID
func (r *Registry) Get(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[id]
	return def, ok
}

// List returns all definitions in registration order
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.defs[id])
	}
	return defs
}

// Len returns the number of registered definitions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var totalOptions int
	for _, def := range r.defs {
		totalOptions += len(def.Options)
	}

	return map[string]interface{}{
		"total_widgets": len(r.order),
		"total_options": totalOptions,
	}
}
