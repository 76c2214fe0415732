package policy

import (
	"sync"
	"time"
	"weak"

	"github.com/torosent/fusetune/internal/stats"
)

// DefaultRegistry is the process-wide registry the factory uses when
// Settings.Registry is nil.
var DefaultRegistry = NewRegistry()

// Registry tracks named policies by non-owning reference: registration never
// extends a policy's lifetime, so a policy dropped by every other holder can
// be reclaimed while still registered. Entries whose policy has been
// reclaimed are treated as absent and swept on access.
type Registry struct {
	mu    sync.Mutex
	cells map[string]weak.Pointer[core]
}

func NewRegistry() *Registry {
	return &Registry{cells: make(map[string]weak.Pointer[core])}
}

func (r *Registry) add(name string, c *core) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cells[name] = weak.Make(c)
}

// AllMetrics returns a point-in-time snapshot of every live registered
// policy's statistics, keyed by name.
func (r *Registry) AllMetrics() map[string]stats.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]stats.Snapshot, len(r.cells))
	for name, ptr := range r.cells {
		c := ptr.Value()
		if c == nil {
			delete(r.cells, name)
			continue
		}
		out[name] = c.Metrics()
	}
	return out
}

// ResetPolicy looks up a registered policy by name and resets its
// statistics, returning the snapshot as it was immediately before the reset.
// The second return is false when no live policy carries that name.
func (r *Registry) ResetPolicy(name string, initial time.Duration, startOverCount int) (stats.Snapshot, bool) {
	r.mu.Lock()
	ptr, ok := r.cells[name]
	var c *core
	if ok {
		c = ptr.Value()
		if c == nil {
			delete(r.cells, name)
		}
	}
	r.mu.Unlock()

	if c == nil {
		return stats.Snapshot{}, false
	}
	return c.Reset(initial, startOverCount), true
}

// Len reports the number of entries currently held, including any whose
// policy has been reclaimed but not yet swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cells)
}
