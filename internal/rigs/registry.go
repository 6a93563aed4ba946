package rigs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrRigExists      = errors.New("rigs: rig already registered")
	ErrRigNil         = errors.New("rigs: rig is nil")
	ErrRigInvalidName = errors.New("rigs: invalid rig name")
)

// Registry holds the registered rigs keyed by name. Units whose platform
// predicate fails never enter the map.
type Registry struct {
	log zerolog.Logger

	mu    sync.RWMutex
	items map[string]Rig
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{log: logger, items: make(map[string]Rig)}
}

// Init registers each unit in order: unsupported units are skipped with a
// warning, duplicates and invalid names abort, and each surviving unit's
// init hook runs before the next registration.
func (r *Registry) Init(ctx context.Context, units ...Rig) error {
	for _, unit := range units {
		if err := r.register(ctx, unit); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) register(ctx context.Context, unit Rig) error {
	if unit == nil {
		return ErrRigNil
	}
	name := strings.TrimSpace(unit.Name())
	if !isValidName(name) {
		return fmt.Errorf("%w: %q", ErrRigInvalidName, name)
	}
	if !unit.Supported() {
		r.log.Warn().Str("rig", name).Msg("rig_unsupported_skipped")
		return nil
	}

	r.mu.Lock()
	if _, ok := r.items[name]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRigExists, name)
	}
	r.items[name] = unit
	r.mu.Unlock()

	if err := unit.Init(ctx); err != nil {
		r.mu.Lock()
		delete(r.items, name)
		r.mu.Unlock()
		return fmt.Errorf("rigs: init %s: %w", name, err)
	}

	r.log.Info().
		Str("rig", name).
		Str("version", unit.Version()).
		Int("capabilities", len(unit.Capabilities())).
		Msg("rig_registered")
	return nil
}

// Get returns a rig by name; absence is a normal outcome.
func (r *Registry) Get(name string) (Rig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	unit, ok := r.items[name]
	return unit, ok
}

// Names returns registered rig names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Descriptors returns introspection data for every registered rig, sorted
// by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.items))
	for _, unit := range r.items {
		out = append(out, Descriptor{
			Name:         unit.Name(),
			Version:      unit.Version(),
			Capabilities: unit.Capabilities(),
			Supported:    true,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Capabilities aggregates every registered rig's tags, sorted.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items)*4)
	for _, unit := range r.items {
		out = append(out, unit.Capabilities()...)
	}
	sort.Strings(out)
	return out
}

// Destroy tears down every registered rig in name order. Failures are
// logged per rig and the sweep continues; the registry empties regardless.
func (r *Registry) Destroy(ctx context.Context) {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]Rig)
	r.mu.Unlock()

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := items[name].Destroy(ctx); err != nil {
			r.log.Error().Err(err).Str("rig", name).Msg("rig_destroy_failed")
			continue
		}
		r.log.Debug().Str("rig", name).Msg("rig_destroyed")
	}
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if isSep && (i == 0 || i == len(name)-1) {
			return false
		}
	}
	return true
}
