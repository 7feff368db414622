package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linemerge/propref/internal/domain/entity"
	"github.com/linemerge/propref/internal/domain/review"
	"github.com/linemerge/propref/internal/infrastructure/repository/memory"
	"github.com/linemerge/propref/internal/platform/logging"
)

func reviewEntry(source, mention string) review.Entry {
	return review.Entry{
		Source:    source,
		Kind:      entity.KindSubject,
		Partition: "NFL",
		Mention:   mention,
		Outcome:   review.OutcomePending,
		SeenAt:    time.Now().UTC(),
	}
}

func TestReviewService_Report(t *testing.T) {
	t.Parallel()

	tracker := review.NewTracker()
	tracker.Append(reviewEntry("pinnacle", "Unknown Player"))
	tracker.Append(reviewEntry("pinnacle", "Another Player"))
	tracker.Append(reviewEntry("circa", "Third Player"))

	svc := NewReviewService(tracker, nil, logging.NewNop())

	report := svc.Report(context.Background())
	if report.Total != 3 {
		t.Fatalf("expected total 3, got %d", report.Total)
	}
	if len(report.Sources) != 2 || len(report.Sources["pinnacle"]) != 2 {
		t.Fatalf("unexpected grouping: %+v", report.Sources)
	}
	if report.GeneratedAt.IsZero() {
		t.Fatalf("report must carry a timestamp")
	}
}

func TestReviewService_DumpJSON(t *testing.T) {
	t.Parallel()

	tracker := review.NewTracker()
	tracker.Append(reviewEntry("pinnacle", "Unknown Player"))

	svc := NewReviewService(tracker, nil, logging.NewNop())

	out, err := svc.DumpJSON(context.Background())
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	body := string(out)
	for _, want := range []string{`"total":1`, `"pinnacle"`, `"Unknown Player"`, string(review.OutcomePending)} {
		if !strings.Contains(body, want) {
			t.Fatalf("dump missing %q: %s", want, body)
		}
	}
}

func TestReviewService_ListBySource(t *testing.T) {
	t.Parallel()

	tracker := review.NewTracker()
	tracker.Append(reviewEntry("pinnacle", "Tracker Only"))

	// Without a repository, listings come from the in-memory tracker.
	svc := NewReviewService(tracker, nil, logging.NewNop())
	entries, err := svc.ListBySource(context.Background(), "pinnacle")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Mention != "Tracker Only" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	// With a repository, persisted entries win over the tracker.
	repo := memory.NewReviewRepository()
	if err := repo.Append(context.Background(), reviewEntry("pinnacle", "Persisted")); err != nil {
		t.Fatalf("append: %v", err)
	}
	svc = NewReviewService(tracker, repo, logging.NewNop())
	entries, err = svc.ListBySource(context.Background(), "pinnacle")
	if err != nil {
		t.Fatalf("list persisted: %v", err)
	}
	if len(entries) != 1 || entries[0].Mention != "Persisted" {
		t.Fatalf("unexpected persisted entries: %+v", entries)
	}

	if _, err := svc.ListBySource(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
