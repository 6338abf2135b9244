package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/specialistvlad/paramfn/internal/fsutil"
	"github.com/specialistvlad/paramfn/internal/model"
)

const fileExtension = ".json"

// Registry holds the stored function definitions of one application instance.
type Registry struct {
	dir  string
	mu   sync.RWMutex
	defs map[string]*model.FunctionDefinition
}

// Dir returns the directory the registry persists to.
func (r *Registry) Dir() string {
	return r.dir
}

// Lookup returns the definition stored under name.
func (r *Registry) Lookup(name string) (*model.FunctionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Exists reports whether a definition is stored under name.
func (r *Registry) Exists(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Save stores def under its name, replacing any previous definition.
func (r *Registry) Save(def *model.FunctionDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	data, err := encode(def)
	if err != nil {
		return fmt.Errorf("failed to encode function '%s': %w", def.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := fsutil.WriteFileAtomic(r.path(def.Name()), data, 0o644); err != nil {
		return fmt.Errorf("failed to write function '%s': %w", def.Name(), err)
	}
	r.defs[def.Name()] = def
	return nil
}

// Delete removes the definition stored under name. It reports false when
// there was nothing to delete.
func (r *Registry) Delete(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[name]; !ok {
		return false, nil
	}
	if err := os.Remove(r.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to delete function '%s': %w", name, err)
	}
	delete(r.defs, name)
	return true, nil
}

// List returns the metadata of every stored definition, sorted by name.
func (r *Registry) List() []model.FunctionMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.FunctionMetadata, 0, len(r.defs))
	for _, name := range sortedNames(r.defs) {
		out = append(out, r.defs[name].Metadata)
	}
	return out
}

// Names returns the names of every stored definition, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedNames(r.defs)
}

// Len returns the number of stored definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

func (r *Registry) path(name string) string {
	return filepath.Join(r.dir, name+fileExtension)
}

// encode renders def the way it is stored: UTF-8 JSON indented with two
// spaces, without HTML escaping.
func encode(def *model.FunctionDefinition) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(def); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedNames(defs map[string]*model.FunctionDefinition) []string {
	return slices.Sorted(maps.Keys(defs))
}
