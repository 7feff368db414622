package usecase

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/linemerge/propref/internal/domain/review"
	"github.com/linemerge/propref/internal/platform/logging"
)

// ReviewReport is the operator-facing dump of accumulated review entries,
// grouped by source. Intended for manual triage, not programmatic use.
type ReviewReport struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Total       int                       `json:"total"`
	Sources     map[string][]review.Entry `json:"sources"`
}

// ReviewService exposes the trackers to operators.
type ReviewService struct {
	tracker *review.Tracker
	repo    review.Repository
	logger  *logging.Logger
}

func NewReviewService(tracker *review.Tracker, repo review.Repository, logger *logging.Logger) *ReviewService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReviewService{
		tracker: tracker,
		repo:    repo,
		logger:  logger,
	}
}

// Report snapshots the in-memory trackers.
func (s *ReviewService) Report(ctx context.Context) ReviewReport {
	_, span := startUsecaseSpan(ctx, "usecase.ReviewService.Report")
	defer span.End()

	return ReviewReport{
		GeneratedAt: time.Now().UTC(),
		Total:       s.tracker.Len(),
		Sources:     s.tracker.Snapshot(),
	}
}

// DumpJSON serializes the current report, one record per source group.
func (s *ReviewService) DumpJSON(ctx context.Context) ([]byte, error) {
	report := s.Report(ctx)
	out, err := sonic.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal review report: %w", err)
	}
	return out, nil
}

// ListBySource reads persisted entries for one source.
func (s *ReviewService) ListBySource(ctx context.Context, source string) ([]review.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReviewService.ListBySource")
	defer span.End()

	if source == "" {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidInput)
	}
	if s.repo == nil {
		return s.tracker.BySource(source), nil
	}

	entries, err := s.repo.ListBySource(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("list review entries source=%s: %w", source, err)
	}
	return entries, nil
}

// LogSummary emits a periodic operator summary of tracker volume.
func (s *ReviewService) LogSummary(ctx context.Context) {
	report := s.Report(ctx)
	s.logger.InfoContext(ctx, "review tracker summary",
		"total", report.Total,
		"sources", len(report.Sources),
	)
}
