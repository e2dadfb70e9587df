// Package backend discovers rendering backends. Backend packages register a
// Provider from init(); callers pick one explicitly or let Auto choose.
package backend

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/resources"
)

// DefaultPriority applies to providers registered with Priority 0.
const DefaultPriority = 50

// Provider describes one backend implementation.
type Provider struct {
	Type gfx.Backend
	// Priority orders providers under Auto and resolves duplicate
	// registrations. Higher wins.
	Priority int
	// Available reports whether the backend can run on this machine.
	Available func() bool
	// NewDevice creates an uninitialized device for surface.
	NewDevice func(surface gfx.Surface) (gfx.Device, error)
	// Shaders returns the backend's shader library.
	Shaders func() gfx.ShaderLibrary
}

func (p Provider) priority() int {
	if p.Priority == 0 {
		return DefaultPriority
	}
	return p.Priority
}

func (p Provider) available() bool { return p.Available == nil || p.Available() }

// CreateDevice creates a device for surface.
func (p Provider) CreateDevice(surface gfx.Surface) (gfx.Device, error) {
	if p.NewDevice == nil {
		return nil, fmt.Errorf("backend %s: no device constructor", p.Type)
	}
	return p.NewDevice(surface)
}

// CreateResourceManager returns a manager over this backend's shaders.
func (p Provider) CreateResourceManager() *resources.Manager {
	var lib gfx.ShaderLibrary
	if p.Shaders != nil {
		lib = p.Shaders()
	}
	return resources.NewManager(lib)
}

// UnsupportedError is returned when no registered provider can serve a
// request. Available lists what could have been used instead.
type UnsupportedError struct {
	Requested gfx.Backend
	Available []gfx.Backend
}

func (e *UnsupportedError) Error() string {
	names := make([]string, len(e.Available))
	for i, b := range e.Available {
		names[i] = b.String()
	}
	return fmt.Sprintf("%v: %s (available: [%s])", gfx.ErrUnsupported, e.Requested, strings.Join(names, ", "))
}

func (e *UnsupportedError) Unwrap() error { return gfx.ErrUnsupported }

var (
	registryMu sync.RWMutex
	providers  = map[gfx.Backend]Provider{}
)

// Register adds p. When a provider of the same type exists, the one with the
// higher priority is kept. Providers for Auto are ignored.
func Register(p Provider) {
	if p.Type == gfx.BackendAuto {
		gfx.Logger().Warn("ignoring provider registered for auto")
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if cur, ok := providers[p.Type]; ok && cur.priority() >= p.priority() {
		return
	}
	providers[p.Type] = p
}

// ClearProviders removes every registration. Intended for tests.
func ClearProviders() {
	registryMu.Lock()
	defer registryMu.Unlock()
	providers = map[gfx.Backend]Provider{}
}

// availableLocked returns usable providers, highest priority first.
func availableLocked() []Provider {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.available() {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Provider) int {
		if c := cmp.Compare(b.priority(), a.priority()); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out
}

// Available lists usable backends, highest priority first.
func Available() []gfx.Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ps := availableLocked()
	out := make([]gfx.Backend, len(ps))
	for i, p := range ps {
		out[i] = p.Type
	}
	return out
}

// IsAvailable reports whether t is registered and usable.
func IsAvailable(t gfx.Backend) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := providers[t]
	return ok && p.available()
}

// Select resolves t to a provider. Auto picks the highest-priority usable one.
func Select(t gfx.Backend) (Provider, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ps := availableLocked()
	if t == gfx.BackendAuto {
		if len(ps) > 0 {
			return ps[0], nil
		}
	} else if p, ok := providers[t]; ok && p.available() {
		return p, nil
	}
	avail := make([]gfx.Backend, len(ps))
	for i, p := range ps {
		avail[i] = p.Type
	}
	return Provider{}, &UnsupportedError{Requested: t, Available: avail}
}

// CreateDevice resolves t and creates a device for surface.
func CreateDevice(t gfx.Backend, surface gfx.Surface) (gfx.Device, error) {
	p, err := Select(t)
	if err != nil {
		return nil, err
	}
	dev, err := p.CreateDevice(surface)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", p.Type, err)
	}
	gfx.Logger().Info("device created", slog.String("requested", t.String()), slog.String("backend", p.Type.String()))
	return dev, nil
}

// CreateResourceManager resolves t and returns a manager over its shaders.
func CreateResourceManager(t gfx.Backend) (*resources.Manager, error) {
	p, err := Select(t)
	if err != nil {
		return nil, err
	}
	return p.CreateResourceManager(), nil
}
