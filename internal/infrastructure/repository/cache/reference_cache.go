package cache

import (
	"sort"
	"strings"
	"sync"

	"github.com/linemerge/propref/internal/domain/entity"
)

// ReferenceCache is the warm-loaded, incrementally updated, partitioned
// in-memory snapshot of one kind's reference corpus. It keeps a dual index
// per partition: an exact name index covering canonical and alt names, and
// a scan table for the fuzzy stage. Entries are appended on successful
// match or insert and never deleted during normal operation.
//
// Reads (LookupExact, Scan) run fully in parallel. Mutations for a
// partition are serialized through Update, whose callback runs under the
// partition's exclusive lock so a backing-store write plus both index
// updates form one atomic unit from the perspective of other resolvers.
type ReferenceCache struct {
	kind entity.Kind

	mu     sync.RWMutex
	shards map[string]*partitionShard
}

type partitionShard struct {
	mu sync.RWMutex
	// byName maps lowercased canonical and alt names to entry offsets.
	byName map[string]int
	// byID maps entity ids to entry offsets.
	byID map[string]int
	// entries is the scan table. Entry values are mutated copy-on-write:
	// alt-name appends clone the slice, so snapshots stay immutable.
	entries []entity.Canonical
}

func NewReferenceCache(kind entity.Kind) *ReferenceCache {
	return &ReferenceCache{
		kind:   kind,
		shards: make(map[string]*partitionShard),
	}
}

func (c *ReferenceCache) Kind() entity.Kind {
	return c.kind
}

// WarmLoad replaces the cache contents from a backing-store read. Called
// once at startup before resolvers start; entities of other kinds are
// ignored.
func (c *ReferenceCache) WarmLoad(entities []entity.Canonical) {
	shards := make(map[string]*partitionShard)
	for _, e := range entities {
		if e.Kind != c.kind {
			continue
		}
		shard, ok := shards[e.Partition]
		if !ok {
			shard = newPartitionShard()
			shards[e.Partition] = shard
		}
		shard.add(e)
	}

	c.mu.Lock()
	c.shards = shards
	c.mu.Unlock()
}

// LookupExact finds an entity by normalized name within a partition.
// An Unknown partition searches every shard.
func (c *ReferenceCache) LookupExact(partition, name string) (entity.Canonical, bool) {
	key := nameKey(name)
	if key == "" {
		return entity.Canonical{}, false
	}

	if partition == entity.PartitionUnknown {
		for _, shard := range c.allShards() {
			if e, ok := shard.lookup(key); ok {
				return e, true
			}
		}
		return entity.Canonical{}, false
	}

	shard := c.shard(partition, false)
	if shard == nil {
		return entity.Canonical{}, false
	}
	return shard.lookup(key)
}

// Scan returns a read-only snapshot of a partition's candidates for the
// fuzzy stage. An Unknown partition returns the full corpus. The snapshot
// never shows a partially applied mutation.
func (c *ReferenceCache) Scan(partition string) []entity.Canonical {
	if partition == entity.PartitionUnknown {
		var out []entity.Canonical
		for _, shard := range c.allShards() {
			out = append(out, shard.snapshot()...)
		}
		return out
	}

	shard := c.shard(partition, false)
	if shard == nil {
		return nil
	}
	return shard.snapshot()
}

// Get returns an entity by id within a partition.
func (c *ReferenceCache) Get(partition, id string) (entity.Canonical, bool) {
	if partition == entity.PartitionUnknown {
		for _, shard := range c.allShards() {
			if e, ok := shard.get(id); ok {
				return e, true
			}
		}
		return entity.Canonical{}, false
	}

	shard := c.shard(partition, false)
	if shard == nil {
		return entity.Canonical{}, false
	}
	return shard.get(id)
}

// Len reports the number of cached entities across all partitions.
func (c *ReferenceCache) Len() int {
	total := 0
	for _, shard := range c.allShards() {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}

// Partitions lists the known partition keys, sorted.
func (c *ReferenceCache) Partitions() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.shards))
	for key := range c.shards {
		out = append(out, key)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Update runs fn under the partition's exclusive lock. All stage-2/3
// mutations (alt-name recording, attribute refresh, new-entity insert) go
// through here together with their backing-store writes.
func (c *ReferenceCache) Update(partition string, fn func(tx *Txn) error) error {
	shard := c.shard(partition, true)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	return fn(&Txn{shard: shard})
}

func (c *ReferenceCache) shard(partition string, create bool) *partitionShard {
	c.mu.RLock()
	shard, ok := c.shards[partition]
	c.mu.RUnlock()
	if ok || !create {
		return shard
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if shard, ok := c.shards[partition]; ok {
		return shard
	}
	shard = newPartitionShard()
	c.shards[partition] = shard
	return shard
}

func (c *ReferenceCache) allShards() []*partitionShard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*partitionShard, 0, len(c.shards))
	for _, shard := range c.shards {
		out = append(out, shard)
	}
	return out
}

func newPartitionShard() *partitionShard {
	return &partitionShard{
		byName: make(map[string]int),
		byID:   make(map[string]int),
	}
}

func (s *partitionShard) add(e entity.Canonical) {
	offset := len(s.entries)
	s.entries = append(s.entries, e)
	s.byID[e.ID] = offset
	s.byName[nameKey(e.CanonicalName)] = offset
	for _, alt := range e.AltNames {
		key := nameKey(alt)
		if _, taken := s.byName[key]; !taken {
			s.byName[key] = offset
		}
	}
}

func (s *partitionShard) lookup(key string) (entity.Canonical, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offset, ok := s.byName[key]
	if !ok {
		return entity.Canonical{}, false
	}
	return s.entries[offset], true
}

func (s *partitionShard) get(id string) (entity.Canonical, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offset, ok := s.byID[id]
	if !ok {
		return entity.Canonical{}, false
	}
	return s.entries[offset], true
}

func (s *partitionShard) snapshot() []entity.Canonical {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Canonical, len(s.entries))
	copy(out, s.entries)
	return out
}

// Txn exposes the mutation operations valid inside an Update callback.
type Txn struct {
	shard *partitionShard
}

// LookupExact re-checks the exact index under the exclusive lock, so a
// resolver can detect an entity inserted by a racing task before writing.
func (tx *Txn) LookupExact(name string) (entity.Canonical, bool) {
	offset, ok := tx.shard.byName[nameKey(name)]
	if !ok {
		return entity.Canonical{}, false
	}
	return tx.shard.entries[offset], true
}

// RecordNew adds a freshly inserted entity to both indexes.
func (tx *Txn) RecordNew(e entity.Canonical) {
	tx.shard.add(e)
}

// RecordAltName adds a confirmed name variant to the entity's alt set and
// the exact index. Returns false without mutating anything when the name
// already aliases a different entity in this partition, or when the id is
// unknown.
func (tx *Txn) RecordAltName(id, name string) bool {
	key := nameKey(name)
	if key == "" {
		return false
	}
	offset, ok := tx.shard.byID[id]
	if !ok {
		return false
	}
	if existing, taken := tx.shard.byName[key]; taken {
		return existing == offset
	}

	e := &tx.shard.entries[offset]
	alts := make([]string, 0, len(e.AltNames)+1)
	alts = append(alts, e.AltNames...)
	alts = append(alts, name)
	e.AltNames = alts
	tx.shard.byName[key] = offset
	return true
}

// RecordMatchUpdate merges mention attributes into the cached entity:
// previously empty fields are filled, and team/jersey are always
// refreshed since players change teams and numbers over a season.
// The returned update holds only the fields that actually changed.
func (tx *Txn) RecordMatchUpdate(id string, attrs entity.Context) entity.AttributeUpdate {
	var update entity.AttributeUpdate
	offset, ok := tx.shard.byID[id]
	if !ok {
		return update
	}

	e := &tx.shard.entries[offset]
	if attrs.Team != "" && attrs.Team != e.Team {
		e.Team = attrs.Team
		update.Team = &attrs.Team
	}
	if attrs.Jersey != "" && attrs.Jersey != e.Jersey {
		e.Jersey = attrs.Jersey
		update.Jersey = &attrs.Jersey
	}
	if attrs.Position != "" && e.Position == "" {
		e.Position = attrs.Position
		update.Position = &attrs.Position
	}
	return update
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
