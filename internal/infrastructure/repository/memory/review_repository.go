package memory

import (
	"context"
	"sync"

	"github.com/linemerge/propref/internal/domain/review"
)

type ReviewRepository struct {
	mu      sync.RWMutex
	entries []review.Entry
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{}
}

func (r *ReviewRepository) Append(_ context.Context, entry review.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)

	return nil
}

func (r *ReviewRepository) ListBySource(_ context.Context, source string) ([]review.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]review.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Source != source {
			continue
		}
		out = append(out, entry)
	}

	return out, nil
}

func (r *ReviewRepository) ListAll(_ context.Context) ([]review.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]review.Entry(nil), r.entries...), nil
}
