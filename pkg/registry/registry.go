package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/genkit-ai/genkit-go/pkg/inference/model"
	"github.com/genkit-ai/genkit-go/pkg/inference/tools"
)

// NotFoundError reports a lookup for a name with no registered capability of
// the requested kind. Callers that need to distinguish resolution failures
// from other errors match on it with errors.As.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// ModelPrefix is the canonical key prefix for model capabilities.
const ModelPrefix = "model/"

// ModelKey returns the normalized registry key for a model name.
func ModelKey(name string) string {
	if strings.HasPrefix(name, ModelPrefix) {
		return name
	}
	return ModelPrefix + name
}

// entry is a closed capability variant: exactly one of the typed fields is
// set, matching the key prefix. Lookups return the typed capability directly
// so callers never downcast a generic value.
type entry struct {
	model model.Model
	tool  *tools.Tool
}

// Registry resolves logical names to Model and Tool capabilities. It is safe
// for concurrent use; lookups at generate time are read-only, so independent
// orchestrator invocations can share one registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// RegisterModel registers a model capability under its normalized key.
func (r *Registry) RegisterModel(m model.Model) error {
	if m == nil {
		return errors.New("model cannot be nil")
	}
	if m.Name() == "" {
		return errors.New("model name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := ModelKey(m.Name())
	if _, exists := r.entries[key]; exists {
		return errors.Errorf("model already registered: %s", m.Name())
	}
	r.entries[key] = entry{model: m}
	return nil
}

// RegisterTool registers an executable tool under its normalized key.
func (r *Registry) RegisterTool(t *tools.Tool) error {
	if t == nil {
		return errors.New("tool cannot be nil")
	}
	if t.Name == "" {
		return errors.New("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	key := tools.CanonicalName(t.Name)
	if _, exists := r.entries[key]; exists {
		return errors.Errorf("tool already registered: %s", t.Name)
	}
	r.entries[key] = entry{tool: t}
	return nil
}

// LookupModel resolves a model capability by name. A missing entry or an
// entry of a different kind is an error; callers treat this as fatal.
func (r *Registry) LookupModel(name string) (model.Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[ModelKey(name)]
	if !exists {
		return nil, &NotFoundError{Kind: "model", Name: name}
	}
	if e.model == nil {
		return nil, errors.Errorf("capability %s is not a model", name)
	}
	return e.model, nil
}

// LookupTool resolves an executable tool by plain or normalized name.
func (r *Registry) LookupTool(name string) (*tools.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[tools.CanonicalName(name)]
	if !exists {
		return nil, &NotFoundError{Kind: "tool", Name: name}
	}
	if e.tool == nil {
		return nil, errors.Errorf("capability %s is not a tool", name)
	}
	return e.tool, nil
}

// ListTools returns every registered tool, sorted by name.
func (r *Registry) ListTools() []*tools.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*tools.Tool
	for _, e := range r.entries {
		if e.tool != nil {
			out = append(out, e.tool)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ToolDefinitions returns the schema surface of the named tools, preserving
// order. Unknown names are skipped; resolution failures at execution time are
// handled by the executor.
func (r *Registry) ToolDefinitions(names []string) []*model.ToolDefinition {
	var defs []*model.ToolDefinition
	for _, name := range names {
		if t, err := r.LookupTool(name); err == nil {
			defs = append(defs, t.Definition())
		}
	}
	return defs
}

var _ tools.Resolver = (*Registry)(nil)
