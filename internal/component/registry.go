package component

import (
	"context"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Instance is a mounted view as seen by the registry.
type Instance interface {
	Render(ctx context.Context) (template.HTML, error)
	Unmount()
}

// RegistryConfig tunes a Registry.
type RegistryConfig struct {
	// IdleTTL unmounts instances that were not accessed for this long.
	IdleTTL time.Duration
	// SweepInterval is how often Run looks for idle instances.
	SweepInterval time.Duration
	Logger        *slog.Logger
	// OnChange receives the number of mounted instances after every change.
	OnChange func(mounted int)
}

type entry struct {
	inst  Instance
	owner string
	seen  time.Time
}

// Registry tracks mounted instances by id and owner.
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
	cfg     RegistryConfig
	now     func() time.Time
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{
		entries: make(map[uuid.UUID]*entry),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Add registers inst under id for owner.
func (r *Registry) Add(id uuid.UUID, owner string, inst Instance) {
	r.mu.Lock()
	prev := r.entries[id]
	r.entries[id] = &entry{inst: inst, owner: owner, seen: r.now()}
	n := len(r.entries)
	r.mu.Unlock()

	if prev != nil {
		prev.inst.Unmount()
	}
	r.changed(n)
}

// Get returns the instance registered under id when owner matches, and marks
// it as recently used.
func (r *Registry) Get(id uuid.UUID, owner string) (Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return nil, false
	}
	e.seen = r.now()
	return e.inst, true
}

// Remove unmounts and forgets the instance registered under id for owner.
func (r *Registry) Remove(id uuid.UUID, owner string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, id)
	n := len(r.entries)
	r.mu.Unlock()

	e.inst.Unmount()
	r.changed(n)
	return true
}

// Len reports the number of mounted instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep unmounts instances idle since before now minus the idle TTL.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.cfg.IdleTTL)
	var stale []Instance

	r.mu.Lock()
	for id, e := range r.entries {
		if e.seen.Before(cutoff) {
			stale = append(stale, e.inst)
			delete(r.entries, id)
		}
	}
	n := len(r.entries)
	r.mu.Unlock()

	for _, inst := range stale {
		inst.Unmount()
	}
	if len(stale) > 0 {
		r.cfg.Logger.Debug("unmounted idle views", slog.Int("count", len(stale)), slog.Int("mounted", n))
		r.changed(n)
	}
	return len(stale)
}

// Run sweeps on a ticker until ctx is done, then unmounts everything.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}

// Close unmounts every instance.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.entries
	r.entries = make(map[uuid.UUID]*entry)
	r.mu.Unlock()

	for _, e := range all {
		e.inst.Unmount()
	}
	if len(all) > 0 {
		r.changed(0)
	}
}

func (r *Registry) changed(n int) {
	if r.cfg.OnChange != nil {
		r.cfg.OnChange(n)
	}
}
