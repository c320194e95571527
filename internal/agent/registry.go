package agent

import (
	"sort"
	"sync"

	"github.com/Iron-Ham/council/internal/errors"
)

// Registry maps perspective names to agent factories. It is built once at
// startup and handed to the scheduler; there is no package-level registry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	fallback  Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds a factory to a perspective, replacing any previous binding.
func (r *Registry) Register(perspective string, f Factory) error {
	if perspective == "" || f == nil {
		return errors.NewValidationError("perspective and factory are required").
			WithField("perspective").
			WithValue(perspective).
			WithCause(errors.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[perspective] = f
	return nil
}

// SetDefault sets the factory used for perspectives with no binding.
func (r *Registry) SetDefault(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = f
}

// Has reports whether perspective has its own binding.
func (r *Registry) Has(perspective string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[perspective]
	return ok
}

// Lookup returns the factory for perspective, falling back to the default.
func (r *Registry) Lookup(perspective string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.factories[perspective]; ok {
		return f, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, errors.Wrapf(errors.ErrUnknownPerspective, "perspective %q", perspective)
}

// Perspectives returns the explicitly registered perspectives, sorted.
func (r *Registry) Perspectives() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for p := range r.factories {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Spawn builds the agent for env.Perspective.
func (r *Registry) Spawn(env Env) (Agent, error) {
	f, err := r.Lookup(env.Perspective)
	if err != nil {
		return nil, err
	}
	a, err := f(env)
	if err != nil {
		return nil, errors.NewAgentError("spawn failed", err).
			WithAgent(env.ID, env.Perspective).
			WithOperation("spawn")
	}
	return a, nil
}
