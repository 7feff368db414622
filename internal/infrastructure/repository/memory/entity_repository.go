package memory

import (
	"context"
	"sync"

	"github.com/linemerge/propref/internal/domain/entity"
)

// EntityRepository is an in-memory reference store used for tests and for
// running without a database. It enforces the same partition-unique name
// invariant the SQL schema does.
type EntityRepository struct {
	mu     sync.RWMutex
	items  map[string]entity.Canonical
	orders []string
	names  map[nameKey]string
}

type nameKey struct {
	kind      entity.Kind
	partition string
	name      string
}

func NewEntityRepository(entities []entity.Canonical) *EntityRepository {
	r := &EntityRepository{
		items: make(map[string]entity.Canonical, len(entities)),
		names: make(map[nameKey]string, len(entities)),
	}

	for _, e := range entities {
		r.items[e.ID] = e
		r.orders = append(r.orders, e.ID)
		r.names[nameKey{kind: e.Kind, partition: e.Partition, name: e.CanonicalName}] = e.ID
		for _, alt := range e.AltNames {
			r.names[nameKey{kind: e.Kind, partition: e.Partition, name: alt}] = e.ID
		}
	}

	return r
}

func (r *EntityRepository) LoadAll(_ context.Context, kind entity.Kind) ([]entity.Canonical, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Canonical, 0, len(r.orders))
	for _, id := range r.orders {
		e := r.items[id]
		if e.Kind != kind {
			continue
		}
		out = append(out, cloneEntity(e))
	}

	return out, nil
}

func (r *EntityRepository) Insert(_ context.Context, e entity.Canonical) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := nameKey{kind: e.Kind, partition: e.Partition, name: e.CanonicalName}
	if _, exists := r.names[key]; exists {
		return "", entity.ErrDuplicateName
	}

	r.items[e.ID] = cloneEntity(e)
	r.orders = append(r.orders, e.ID)
	r.names[key] = e.ID
	for _, alt := range e.AltNames {
		r.names[nameKey{kind: e.Kind, partition: e.Partition, name: alt}] = e.ID
	}

	return e.ID, nil
}

func (r *EntityRepository) UpdateAttributes(_ context.Context, id string, update entity.AttributeUpdate) error {
	if update.Empty() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		return entity.ErrNotFound
	}

	if update.Team != nil {
		e.Team = *update.Team
	}
	if update.Position != nil {
		e.Position = *update.Position
	}
	if update.Jersey != nil {
		e.Jersey = *update.Jersey
	}
	r.items[id] = e

	return nil
}

func (r *EntityRepository) AppendAltName(_ context.Context, id string, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		return entity.ErrNotFound
	}

	key := nameKey{kind: e.Kind, partition: e.Partition, name: name}
	if ownerID, exists := r.names[key]; exists {
		if ownerID != id {
			return entity.ErrDuplicateName
		}
		return nil
	}

	e.AltNames = append(append([]string(nil), e.AltNames...), name)
	r.items[id] = e
	r.names[key] = id

	return nil
}

// Get returns a stored entity by id, for test assertions.
func (r *EntityRepository) Get(id string) (entity.Canonical, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		return entity.Canonical{}, false
	}
	return cloneEntity(e), true
}

func cloneEntity(e entity.Canonical) entity.Canonical {
	out := e
	out.AltNames = append([]string(nil), e.AltNames...)
	return out
}
