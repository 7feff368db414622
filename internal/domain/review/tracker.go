package review

import (
	"sort"
	"sync"
)

// Tracker accumulates review entries in memory, partitioned by source.
// Appends from concurrent ingestion tasks contend only on their own
// source bucket; readers take a full snapshot for dumps.
type Tracker struct {
	mu      sync.RWMutex
	buckets map[string]*sourceBucket
}

type sourceBucket struct {
	mu      sync.Mutex
	entries []Entry
}

func NewTracker() *Tracker {
	return &Tracker{
		buckets: make(map[string]*sourceBucket),
	}
}

func (t *Tracker) Append(entry Entry) {
	bucket := t.bucket(entry.Source)
	bucket.mu.Lock()
	bucket.entries = append(bucket.entries, entry)
	bucket.mu.Unlock()
}

func (t *Tracker) bucket(source string) *sourceBucket {
	t.mu.RLock()
	b, ok := t.buckets[source]
	t.mu.RUnlock()
	if ok {
		return b
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.buckets[source]; ok {
		return b
	}
	b = &sourceBucket{}
	t.buckets[source] = b
	return b
}

// BySource returns a copy of one source's entries in append order.
func (t *Tracker) BySource(source string) []Entry {
	t.mu.RLock()
	b, ok := t.buckets[source]
	t.mu.RUnlock()
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Snapshot returns all accumulated entries grouped by source.
func (t *Tracker) Snapshot() map[string][]Entry {
	t.mu.RLock()
	sources := make([]string, 0, len(t.buckets))
	for source := range t.buckets {
		sources = append(sources, source)
	}
	t.mu.RUnlock()
	sort.Strings(sources)

	out := make(map[string][]Entry, len(sources))
	for _, source := range sources {
		entries := t.BySource(source)
		if len(entries) > 0 {
			out[source] = entries
		}
	}
	return out
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	total := 0
	for _, b := range t.buckets {
		b.mu.Lock()
		total += len(b.entries)
		b.mu.Unlock()
	}
	return total
}
