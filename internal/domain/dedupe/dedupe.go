// Package dedupe defines the interface for idempotency tracking.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/sportiq/internal/domain/ring"
)

// Deduper guards interaction submission so a retried event_id is counted
// once.
type Deduper interface {
	// SeenAndRecord reports whether id was already known, recording it when
	// it was not. Check and record happen under one lock.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission refused for backpressure can be
	// retried with the same event_id.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

type slot struct {
	id  string
	seq uint64
}

// inMemoryDeduper remembers the most recent maxSize ids. The ring holds
// insertion order; the map holds the live sequence number of each id so a
// stale ring slot (left behind by Unrecord) never evicts a newer record.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64
	order   *ring.Buffer[slot]
	seq     uint64
	maxSize int
}

// NewInMemoryDeduper remembers the last 50000 ids unless WithMaxSize says
// otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: 50000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]uint64)
	if d.maxSize > 0 {
		d.order = ring.New[slot](d.maxSize)
	}

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	d.seq++
	d.seen[id] = d.seq
	if d.order != nil {
		if old, evicted := d.order.Push(slot{id: id, seq: d.seq}); evicted {
			if cur, ok := d.seen[old.id]; ok && cur == old.seq {
				delete(d.seen, old.id)
			}
		}
	}
	return false
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

// Size returns the current number of remembered ids.
func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
