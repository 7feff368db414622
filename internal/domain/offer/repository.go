package offer

import "context"

// Repository persists collected prop offers.
type Repository interface {
	InsertBatch(ctx context.Context, offers []PropOffer) error
}
