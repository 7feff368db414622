package memory

import (
	"context"
	"sync"

	"github.com/linemerge/propref/internal/domain/offer"
)

type OfferRepository struct {
	mu     sync.RWMutex
	offers []offer.PropOffer
}

func NewOfferRepository() *OfferRepository {
	return &OfferRepository{}
}

func (r *OfferRepository) InsertBatch(_ context.Context, offers []offer.PropOffer) error {
	for _, o := range offers {
		if err := o.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.offers = append(r.offers, offers...)

	return nil
}

// ListAll returns stored offers in insertion order, for test assertions.
func (r *OfferRepository) ListAll(_ context.Context) ([]offer.PropOffer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]offer.PropOffer(nil), r.offers...), nil
}
