package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Source is the read side of a catalog owner. Implemented by Memory,
// storage.Store and storage.PostgresCatalog.
type Source interface {
	List(ctx context.Context) ([]Entry, error)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// View hands out per-turn snapshots of a Source. Snapshots are cached for
// a short TTL so a burst of turns does not hit the backing store on every
// call. A zero TTL disables caching.
type View struct {
	src   Source
	clock Clock
	ttl   time.Duration

	mu       sync.RWMutex
	cached   []Entry
	cachedAt time.Time
	loaded   bool
}

// NewView creates a View with the given cache TTL.
func NewView(src Source, ttl time.Duration) *View {
	return &View{src: src, clock: realClock{}, ttl: ttl}
}

// NewViewWithClock creates a View with a custom clock (for testing).
func NewViewWithClock(src Source, clock Clock, ttl time.Duration) *View {
	return &View{src: src, clock: clock, ttl: ttl}
}

func (v *View) fresh() bool {
	return v.loaded && v.ttl > 0 && v.clock.Now().Before(v.cachedAt.Add(v.ttl))
}

// Snapshot returns a private copy of the catalog. When the source fails the
// last good snapshot is returned and the error is logged; a source that has
// never loaded yields an empty catalog.
func (v *View) Snapshot(ctx context.Context) []Entry {
	v.mu.RLock()
	if v.fresh() {
		out := cloneEntries(v.cached)
		v.mu.RUnlock()
		return out
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.fresh() {
		return cloneEntries(v.cached)
	}

	entries, err := v.src.List(ctx)
	if err != nil {
		slog.Warn("catalog snapshot failed, serving previous snapshot", "error", err, "entries", len(v.cached))
		return cloneEntries(v.cached)
	}

	v.cached = make([]Entry, 0, len(entries))
	for _, e := range entries {
		v.cached = append(v.cached, e.Normalize())
	}
	v.cachedAt = v.clock.Now()
	v.loaded = true
	return cloneEntries(v.cached)
}

// Invalidate drops the cached snapshot.
func (v *View) Invalidate() {
	v.mu.Lock()
	v.loaded = false
	v.cached = nil
	v.mu.Unlock()
}

func cloneEntries(in []Entry) []Entry {
	out := make([]Entry, len(in))
	copy(out, in)
	return out
}
