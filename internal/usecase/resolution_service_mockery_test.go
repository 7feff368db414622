package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/linemerge/propref/internal/domain/entity"
	"github.com/linemerge/propref/internal/domain/matching"
	"github.com/linemerge/propref/internal/domain/review"
	entitymock "github.com/linemerge/propref/internal/mocks/domain/entity"
	reviewmock "github.com/linemerge/propref/internal/mocks/domain/review"
	"github.com/linemerge/propref/internal/platform/logging"
)

func TestResolutionService_WarmLoad_LoadsEveryKindUsingMockery(t *testing.T) {
	t.Parallel()

	store := entitymock.NewRepository(t)
	store.
		On("LoadAll", mock.Anything, mock.AnythingOfType("entity.Kind")).
		Return([]entity.Canonical{}, nil).
		Times(len(entity.AllKinds))

	svc := NewResolutionService(
		store,
		matching.NewNormalizer(nil),
		matching.NewScorer(matching.DefaultWeights(), nil),
		matching.DefaultThresholds(),
		nil,
		review.NewTracker(),
		nil,
		nil,
		logging.NewNop(),
	)
	if err := svc.WarmLoad(context.Background()); err != nil {
		t.Fatalf("warm load: %v", err)
	}
}

func TestResolutionService_WarmLoad_StoreFailureUsingMockery(t *testing.T) {
	t.Parallel()

	store := entitymock.NewRepository(t)
	store.
		On("LoadAll", mock.Anything, mock.AnythingOfType("entity.Kind")).
		Return(nil, errors.New("connection refused"))

	svc := NewResolutionService(
		store,
		matching.NewNormalizer(nil),
		matching.NewScorer(matching.DefaultWeights(), nil),
		matching.DefaultThresholds(),
		nil,
		review.NewTracker(),
		nil,
		nil,
		logging.NewNop(),
	)
	if err := svc.WarmLoad(context.Background()); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestResolutionService_Resolve_PersistsReviewEntryUsingMockery(t *testing.T) {
	t.Parallel()

	store := entitymock.NewRepository(t)
	store.
		On("LoadAll", mock.Anything, mock.AnythingOfType("entity.Kind")).
		Return([]entity.Canonical{}, nil).
		Times(len(entity.AllKinds))

	reviewRepo := reviewmock.NewRepository(t)
	reviewRepo.
		On("Append", mock.Anything, mock.MatchedBy(func(e review.Entry) bool {
			return e.Source == "pinnacle" &&
				e.Mention == "Brock Purdy" &&
				e.Partition == "NFL" &&
				e.Outcome == review.OutcomePending
		})).
		Return(nil).
		Once()

	svc := NewResolutionService(
		store,
		matching.NewNormalizer(nil),
		matching.NewScorer(matching.DefaultWeights(), nil),
		matching.DefaultThresholds(),
		[]string{"pinnacle"},
		review.NewTracker(),
		reviewRepo,
		nil,
		logging.NewNop(),
	)
	if err := svc.WarmLoad(context.Background()); err != nil {
		t.Fatalf("warm load: %v", err)
	}

	res, err := svc.Resolve(context.Background(), subjectMention("pinnacle", "Brock Purdy"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Resolved() {
		t.Fatalf("expected unresolved, got %+v", res)
	}
}
