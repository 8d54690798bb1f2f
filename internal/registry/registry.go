package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ShaderID is an opaque handle into a Registry. The zero value is never a
// registered shader.
type ShaderID int

// Shader is one fragment shader definition.
type Shader struct {
	Name string
	Frag string
}

// Registry stores registered shaders. It is safe for concurrent use; the
// compiler only ever reads from it.
type Registry struct {
	mu      sync.RWMutex
	next    ShaderID
	shaders map[ShaderID]Shader
}

// New creates an empty Registry whose first id will be 1.
func New() *Registry {
	return &Registry{
		next:    1,
		shaders: make(map[ShaderID]Shader),
	}
}

// Register adds every shader in the map, in key order, and returns the id
// assigned to each key. A shader without a name is named after its key.
// Nothing is registered when any definition is invalid.
func (r *Registry) Register(shaders map[string]Shader) (map[string]ShaderID, error) {
	keys := make([]string, 0, len(shaders))
	for k := range shaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for _, k := range keys {
		if strings.TrimSpace(shaders[k].Frag) == "" {
			errs = append(errs, fmt.Sprintf("shader '%s': a valid shader needs a non-empty frag source", k))
		}
	}
	if len(errs) > 0 {
		return nil, errors.New("shader registration failed:\n- " + strings.Join(errs, "\n- "))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make(map[string]ShaderID, len(keys))
	for _, k := range keys {
		s := shaders[k]
		if s.Name == "" {
			s.Name = k
		}
		id := r.next
		r.next++
		r.shaders[id] = s
		ids[k] = id
	}
	return ids, nil
}

// Exists reports whether id was handed out by this registry.
func (r *Registry) Exists(id ShaderID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.shaders[id]
	return ok
}

// NameOf returns the display name of a shader, or "" for unknown ids.
func (r *Registry) NameOf(id ShaderID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shaders[id].Name
}

// Get returns the full shader definition.
func (r *Registry) Get(id ShaderID) (Shader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shaders[id]
	return s, ok
}

// List returns all registered ids in ascending order.
func (r *Registry) List() []ShaderID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ShaderID, 0, len(r.shaders))
	for id := range r.shaders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
