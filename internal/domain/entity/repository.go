package entity

import "context"

// Repository describes what the resolution protocol needs from a backing
// store. Any persistent store enforcing the partition-unique canonical-name
// and alt-name invariants is acceptable.
type Repository interface {
	// LoadAll returns the full corpus for one kind, used for the cache
	// warm-load at startup.
	LoadAll(ctx context.Context, kind Kind) ([]Canonical, error)
	// Insert persists a freshly created entity and returns its id. A
	// racing duplicate within the same (kind, partition) must surface as
	// ErrDuplicateName, not as a second row.
	Insert(ctx context.Context, e Canonical) (string, error)
	UpdateAttributes(ctx context.Context, id string, update AttributeUpdate) error
	AppendAltName(ctx context.Context, id string, name string) error
}
