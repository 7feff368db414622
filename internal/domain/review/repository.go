package review

import "context"

// Repository persists review entries for operator triage.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	ListBySource(ctx context.Context, source string) ([]Entry, error)
	ListAll(ctx context.Context) ([]Entry, error)
}
