package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/linemerge/propref/internal/domain/entity"
)

func warmCache(t *testing.T) *ReferenceCache {
	t.Helper()

	c := NewReferenceCache(entity.KindSubject)
	c.WarmLoad([]entity.Canonical{
		{ID: "s1", Kind: entity.KindSubject, Partition: "NFL", CanonicalName: "Patrick Mahomes", AltNames: []string{"Pat Mahomes"}, Team: "KC", Position: "QB", Jersey: "15"},
		{ID: "s2", Kind: entity.KindSubject, Partition: "NFL", CanonicalName: "Josh Allen", Team: "BUF"},
		{ID: "s3", Kind: entity.KindSubject, Partition: "NBA", CanonicalName: "LeBron James", Team: "LAL"},
		// Wrong kind rows are dropped on warm load.
		{ID: "m1", Kind: entity.KindMarket, Partition: "FOOTBALL", CanonicalName: "Passing Yards"},
	})
	return c
}

func TestWarmLoad_PartitionsAndFilters(t *testing.T) {
	t.Parallel()

	c := warmCache(t)
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}

	partitions := c.Partitions()
	if len(partitions) != 2 || partitions[0] != "NBA" || partitions[1] != "NFL" {
		t.Fatalf("unexpected partitions: %+v", partitions)
	}
}

func TestLookupExact(t *testing.T) {
	t.Parallel()

	c := warmCache(t)

	e, ok := c.LookupExact("NFL", "Patrick Mahomes")
	if !ok || e.ID != "s1" {
		t.Fatalf("canonical lookup failed: %+v ok=%v", e, ok)
	}
	// Alt names and case variants hit the same entry.
	if e, ok := c.LookupExact("NFL", "pat mahomes"); !ok || e.ID != "s1" {
		t.Fatalf("alt lookup failed: %+v ok=%v", e, ok)
	}
	if _, ok := c.LookupExact("NBA", "Patrick Mahomes"); ok {
		t.Fatalf("lookup must not cross partitions")
	}
	if _, ok := c.LookupExact("NFL", "Nobody"); ok {
		t.Fatalf("expected miss for unknown name")
	}
}

func TestLookupExact_UnknownPartitionSearchesAll(t *testing.T) {
	t.Parallel()

	c := warmCache(t)

	if e, ok := c.LookupExact(entity.PartitionUnknown, "LeBron James"); !ok || e.ID != "s3" {
		t.Fatalf("unknown-partition lookup failed: %+v ok=%v", e, ok)
	}
}

func TestScan_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	c := warmCache(t)

	snap := c.Scan("NFL")
	if len(snap) != 2 {
		t.Fatalf("scan len = %d, want 2", len(snap))
	}

	_ = c.Update("NFL", func(tx *Txn) error {
		tx.RecordNew(entity.Canonical{ID: "s9", Kind: entity.KindSubject, Partition: "NFL", CanonicalName: "Travis Kelce"})
		if !tx.RecordAltName("s1", "P Mahomes") {
			t.Errorf("expected alt name recorded")
		}
		return nil
	})

	// The earlier snapshot must not observe the mutation.
	if len(snap) != 2 {
		t.Fatalf("snapshot grew after mutation")
	}
	for _, e := range snap {
		if e.ID == "s1" && len(e.AltNames) != 1 {
			t.Fatalf("snapshot entry mutated: %+v", e)
		}
	}

	if len(c.Scan("NFL")) != 3 {
		t.Fatalf("fresh scan should include the new entity")
	}
	if len(c.Scan(entity.PartitionUnknown)) != 4 {
		t.Fatalf("unknown-partition scan should cover all shards")
	}
}

func TestTxn_RecordAltNameRefusesAliases(t *testing.T) {
	t.Parallel()

	c := warmCache(t)

	_ = c.Update("NFL", func(tx *Txn) error {
		// Josh Allen already names s2; recording it against s1 would alias
		// two entities under one name.
		if tx.RecordAltName("s1", "Josh Allen") {
			t.Errorf("expected alias rejection")
		}
		// Re-recording an entity's own name is a no-op success.
		if !tx.RecordAltName("s1", "Pat Mahomes") {
			t.Errorf("expected idempotent success for own alt name")
		}
		if tx.RecordAltName("missing", "Anything") {
			t.Errorf("expected rejection for unknown id")
		}
		return nil
	})

	e, _ := c.Get("NFL", "s1")
	if len(e.AltNames) != 1 {
		t.Fatalf("alt names should be unchanged, got %+v", e.AltNames)
	}
}

func TestTxn_RecordMatchUpdate(t *testing.T) {
	t.Parallel()

	c := warmCache(t)

	_ = c.Update("NFL", func(tx *Txn) error {
		update := tx.RecordMatchUpdate("s1", entity.Context{Team: "SF", Jersey: "15", Position: "WR"})
		if update.Team == nil || *update.Team != "SF" {
			t.Errorf("team should refresh on change, got %+v", update.Team)
		}
		if update.Jersey != nil {
			t.Errorf("unchanged jersey should not be written")
		}
		// Position was already learned; it is kept.
		if update.Position != nil {
			t.Errorf("existing position must not be overwritten")
		}
		return nil
	})

	_ = c.Update("NFL", func(tx *Txn) error {
		update := tx.RecordMatchUpdate("s2", entity.Context{Position: "QB"})
		if update.Position == nil || *update.Position != "QB" {
			t.Errorf("empty position should be filled, got %+v", update.Position)
		}
		return nil
	})

	e, _ := c.Get("NFL", "s1")
	if e.Team != "SF" || e.Position != "QB" {
		t.Fatalf("unexpected entity after update: %+v", e)
	}
}

func TestTxn_LookupExactSeesPendingState(t *testing.T) {
	t.Parallel()

	c := warmCache(t)

	_ = c.Update("NFL", func(tx *Txn) error {
		if _, ok := tx.LookupExact("Travis Kelce"); ok {
			t.Errorf("unexpected hit before insert")
		}
		tx.RecordNew(entity.Canonical{ID: "s9", Kind: entity.KindSubject, Partition: "NFL", CanonicalName: "Travis Kelce"})
		if e, ok := tx.LookupExact("travis kelce"); !ok || e.ID != "s9" {
			t.Errorf("expected hit after insert, got %+v ok=%v", e, ok)
		}
		return nil
	})
}

func TestUpdate_ConcurrentInsertsSeparatePartitions(t *testing.T) {
	t.Parallel()

	c := NewReferenceCache(entity.KindSubject)
	partitions := []string{"NFL", "NBA", "MLB", "NHL"}

	var wg sync.WaitGroup
	for _, partition := range partitions {
		for i := 0; i < 50; i++ {
			partition, i := partition, i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = c.Update(partition, func(tx *Txn) error {
					name := fmt.Sprintf("Player %s %d", partition, i)
					if _, ok := tx.LookupExact(name); ok {
						return nil
					}
					tx.RecordNew(entity.Canonical{
						ID:            fmt.Sprintf("%s-%d", partition, i),
						Kind:          entity.KindSubject,
						Partition:     partition,
						CanonicalName: name,
					})
					return nil
				})
			}()
		}
	}
	wg.Wait()

	if c.Len() != len(partitions)*50 {
		t.Fatalf("Len = %d, want %d", c.Len(), len(partitions)*50)
	}
}

func TestUpdate_ConcurrentSamePartitionSerialized(t *testing.T) {
	t.Parallel()

	c := NewReferenceCache(entity.KindSubject)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Update("NFL", func(tx *Txn) error {
				// Re-check under the exclusive lock, as resolvers do.
				if _, ok := tx.LookupExact("Same Player"); ok {
					return nil
				}
				tx.RecordNew(entity.Canonical{ID: "only", Kind: entity.KindSubject, Partition: "NFL", CanonicalName: "Same Player"})
				return nil
			})
		}()
	}
	wg.Wait()

	if c.Len() != 1 {
		t.Fatalf("expected exactly one entity after racing inserts, got %d", c.Len())
	}
}
