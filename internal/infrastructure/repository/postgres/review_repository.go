package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/linemerge/propref/internal/domain/entity"
	"github.com/linemerge/propref/internal/domain/review"
	qb "github.com/linemerge/propref/internal/platform/querybuilder"
)

type ReviewRepository struct {
	db *sqlx.DB
}

var reviewSelectColumns = []string{
	"id",
	"source",
	"kind",
	"partition",
	"mention",
	"outcome",
	"best_distance",
	"has_candidate",
	"seen_at",
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Append(ctx context.Context, entry review.Entry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validate review entry: %w", err)
	}

	const query = `
INSERT INTO review_entries (source, kind, partition, mention, outcome, best_distance, has_candidate, seen_at)
VALUES (:source, :kind, :partition, :mention, :outcome, :best_distance, :has_candidate, :seen_at)`

	args := map[string]any{
		"source":        entry.Source,
		"kind":          string(entry.Kind),
		"partition":     entry.Partition,
		"mention":       entry.Mention,
		"outcome":       string(entry.Outcome),
		"best_distance": entry.BestDistance,
		"has_candidate": entry.HasCandidate,
		"seen_at":       entry.SeenAt,
	}
	insertSQL, insertArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind insert review entry query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(insertSQL), insertArgs...); err != nil {
		return fmt.Errorf("insert review entry: %w", err)
	}

	return nil
}

func (r *ReviewRepository) ListBySource(ctx context.Context, source string) ([]review.Entry, error) {
	query, args, err := qb.Select(reviewSelectColumns...).From("review_entries").
		Where(qb.Eq("source", source)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select review entries by source query: %w", err)
	}

	var rows []reviewEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select review entries by source: %w", err)
	}

	return reviewRowsToEntries(rows), nil
}

func (r *ReviewRepository) ListAll(ctx context.Context) ([]review.Entry, error) {
	query, args, err := qb.Select(reviewSelectColumns...).From("review_entries").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select review entries query: %w", err)
	}

	var rows []reviewEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select review entries: %w", err)
	}

	return reviewRowsToEntries(rows), nil
}

func reviewRowsToEntries(rows []reviewEntryTableModel) []review.Entry {
	out := make([]review.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, review.Entry{
			Source:       row.Source,
			Kind:         entity.Kind(row.Kind),
			Partition:    row.Partition,
			Mention:      row.Mention,
			Outcome:      review.Outcome(row.Outcome),
			BestDistance: row.BestDistance,
			HasCandidate: row.HasCandidate,
			SeenAt:       row.SeenAt,
		})
	}
	return out
}
