// Package registry holds a named collection of rate gates.
//
// A Registry is typically built from configuration with FromConfig and then
// shared by the load generator, the metrics collector and the health
// checker. Gates are closed together with Close.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/clayv/RateGate/pkg/config"
	"github.com/clayv/RateGate/pkg/rategate"
)

var (
	// ErrNotFound is returned when no gate is registered under a name.
	ErrNotFound = errors.New("gate not found")

	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("gate already registered")
)

// Registry maps names to gates. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	gates map[string]*rategate.Gate
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{gates: make(map[string]*rategate.Gate)}
}

// FromConfig builds one gate per configured entry, in declaration order.
// opts are applied to every gate after WithName, so a shared observer or
// logger can be passed once. On failure every gate built so far is closed.
func FromConfig(gates []config.GateConfig, opts ...rategate.Option) (*Registry, error) {
	r := New()

	for _, gc := range gates {
		gateOpts := append([]rategate.Option{rategate.WithName(gc.Name)}, opts...)

		g, err := rategate.New(gc.Occurrences, gc.TimeUnit, gateOpts...)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to create gate %q: %w", gc.Name, err)
		}
		if err := r.Register(gc.Name, g); err != nil {
			g.Close()
			r.Close()
			return nil, err
		}
	}

	slog.Default().With("component", "registry").Debug("registry built", "gates", len(gates))

	return r, nil
}

// Register adds g under name.
func (r *Registry) Register(name string, g *rategate.Gate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.gates[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.gates[name] = g
	r.order = append(r.order, name)
	return nil
}

// Get returns the gate registered under name.
func (r *Registry) Get(name string) (*rategate.Gate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.gates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return g, nil
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered gates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.gates)
}

// Closed returns the sorted names of gates that have been torn down.
func (r *Registry) Closed() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var closed []string
	for name, g := range r.gates {
		if g.Closed() {
			closed = append(closed, name)
		}
	}
	sort.Strings(closed)
	return closed
}

// Close closes every gate. Gates disposed by a reclaimer failure report
// their cause; the errors are joined.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for _, name := range r.order {
		g := r.gates[name]
		if err := g.Err(); err != nil {
			errs = append(errs, fmt.Errorf("gate %q: %w", name, err))
		}
		if err := g.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close gate %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
