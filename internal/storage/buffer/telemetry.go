package buffer

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/nodalite/bufferpool/internal/common"
)

// Telemetry is a non-authoritative hit-rate sidecar. It records every
// FetchPage/NewPage access into a ristretto cache purely to accumulate
// ristretto's built-in hit/miss metrics; it never answers Get/Set lookups
// the pool relies on and never influences eviction. The LRU-K replacer
// remains the sole eviction authority. A nil *Telemetry is valid and
// every method on it is a no-op, so attaching telemetry never changes
// observable BufferPoolManager behavior.
type Telemetry struct {
	cache *ristretto.Cache[uint64, struct{}]
}

// NewTelemetry builds a sidecar sized for roughly capacity entries, the
// same order of magnitude as the pool it instruments.
func NewTelemetry(capacity int) (*Telemetry, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, struct{}]{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity),
		BufferItems: 64,
		Metrics:     true,
		// Each entry costs 1; without this ristretto adds its own per-item
		// overhead to that cost and MaxCost would hold far fewer entries.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Telemetry{cache: cache}, nil
}

// record feeds one page access into the sidecar. It looks the page up
// first so ristretto's own Metrics.Hits()/Misses() counters track
// repeated access to the same page id, then ensures the id is present
// for next time.
func (t *Telemetry) record(id common.PageID) {
	if t == nil {
		return
	}
	key := uint64(id)
	if _, found := t.cache.Get(key); !found {
		t.cache.Set(key, struct{}{}, 1)
	}
}

// Stats reports the sidecar's accumulated hit ratio, hit count, and miss
// count. It returns zero values if t is nil.
type Stats struct {
	Ratio   float64
	Hits    uint64
	Misses  uint64
	Entries int64
}

// Stats snapshots the sidecar's current metrics.
func (t *Telemetry) Stats() Stats {
	if t == nil || t.cache.Metrics == nil {
		return Stats{}
	}
	m := t.cache.Metrics
	return Stats{
		Ratio:  m.Ratio(),
		Hits:   m.Hits(),
		Misses: m.Misses(),
	}
}

// Close releases the sidecar's background goroutines.
func (t *Telemetry) Close() {
	if t == nil {
		return
	}
	t.cache.Close()
}
