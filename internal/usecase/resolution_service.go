package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linemerge/propref/internal/domain/entity"
	"github.com/linemerge/propref/internal/domain/matching"
	"github.com/linemerge/propref/internal/domain/review"
	"github.com/linemerge/propref/internal/infrastructure/repository/cache"
	idgen "github.com/linemerge/propref/internal/platform/id"
	"github.com/linemerge/propref/internal/platform/logging"
)

// Outcome is the terminal state of one resolution call.
type Outcome string

const (
	OutcomeExact      Outcome = "exact"
	OutcomeFuzzy      Outcome = "fuzzy"
	OutcomeInserted   Outcome = "inserted"
	OutcomeUnresolved Outcome = "unresolved"
)

// Resolution is the result returned to ingestion collaborators. Unresolved
// is an expected outcome, not an error: the caller keeps its raw mention
// and proceeds without a canonical id.
type Resolution struct {
	ID       string
	Outcome  Outcome
	Distance float64
}

func (r Resolution) Resolved() bool {
	return r.Outcome != OutcomeUnresolved
}

// errDuplicateRace marks a stage-3 insert that lost to a concurrent
// resolution of the same new entity.
var errDuplicateRace = errors.New("duplicate insert race")

// ResolutionService orchestrates the three-stage protocol: exact lookup,
// weighted fuzzy match, then insert-or-flag. It exclusively owns mutation
// of the backing store and the reference caches; collaborators only submit
// mentions and receive ids.
type ResolutionService struct {
	store      entity.Repository
	caches     map[entity.Kind]*cache.ReferenceCache
	normalizer *matching.Normalizer
	scorer     *matching.Scorer
	thresholds matching.Thresholds
	tracker    *review.Tracker
	reviewRepo review.Repository
	idGen      idgen.Generator
	logger     *logging.Logger

	// readOnlySources may not insert entities or persist alt names:
	// their attribute reporting is too sparse or noisy to trust for
	// canonicalization. A trust boundary, not an optimization.
	readOnlySources map[string]struct{}
}

func NewResolutionService(
	store entity.Repository,
	normalizer *matching.Normalizer,
	scorer *matching.Scorer,
	thresholds matching.Thresholds,
	readOnlySources []string,
	tracker *review.Tracker,
	reviewRepo review.Repository,
	generator idgen.Generator,
	logger *logging.Logger,
) *ResolutionService {
	if logger == nil {
		logger = logging.Default()
	}
	if tracker == nil {
		tracker = review.NewTracker()
	}
	if generator == nil {
		generator = idgen.NewRandomGenerator()
	}

	readOnly := make(map[string]struct{}, len(readOnlySources))
	for _, source := range readOnlySources {
		source = strings.ToLower(strings.TrimSpace(source))
		if source != "" {
			readOnly[source] = struct{}{}
		}
	}

	caches := make(map[entity.Kind]*cache.ReferenceCache, len(entity.AllKinds))
	for kind := range entity.AllKinds {
		caches[kind] = cache.NewReferenceCache(kind)
	}

	return &ResolutionService{
		store:           store,
		caches:          caches,
		normalizer:      normalizer,
		scorer:          scorer,
		thresholds:      thresholds,
		tracker:         tracker,
		reviewRepo:      reviewRepo,
		idGen:           generator,
		logger:          logger,
		readOnlySources: readOnly,
	}
}

// WarmLoad fills every kind's cache from the backing store. A failure here
// is fatal to the caller: the caches cannot serve without initial data.
func (s *ResolutionService) WarmLoad(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolutionService.WarmLoad")
	defer span.End()

	for kind, kindCache := range s.caches {
		entities, err := s.store.LoadAll(ctx, kind)
		if err != nil {
			return fmt.Errorf("%w: warm-load %s corpus: %v", ErrDependencyUnavailable, kind, err)
		}
		kindCache.WarmLoad(entities)
		s.logger.InfoContext(ctx, "reference cache warm-loaded",
			"kind", string(kind),
			"entities", kindCache.Len(),
			"partitions", len(kindCache.Partitions()),
		)
	}
	return nil
}

// Tracker exposes the review tracker for operator dumps.
func (s *ResolutionService) Tracker() *review.Tracker {
	return s.tracker
}

// Cache returns the reference cache for one kind.
func (s *ResolutionService) Cache(kind entity.Kind) *cache.ReferenceCache {
	return s.caches[kind]
}

// SourceMayMutate reports whether a source is trusted to alter the
// reference store.
func (s *ResolutionService) SourceMayMutate(source string) bool {
	_, readOnly := s.readOnlySources[strings.ToLower(strings.TrimSpace(source))]
	return !readOnly
}

// Resolve maps one raw mention to a canonical entity id, or flags it.
func (s *ResolutionService) Resolve(ctx context.Context, m entity.Mention) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolutionService.Resolve")
	defer span.End()

	if err := m.Validate(); err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	kindCache, ok := s.caches[m.Kind]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: unsupported kind %s", ErrInvalidInput, m.Kind)
	}

	m.Name = s.normalizer.Name(m.Kind, m.Source, m.Name)
	if m.Name == "" {
		return Resolution{}, fmt.Errorf("%w: mention name is empty after normalization", ErrInvalidInput)
	}

	partition := matching.PartitionKey(m.Kind, m.Context)
	if partition == entity.PartitionUnknown {
		s.logger.WarnContext(ctx, "partition unknown, falling back to full scan",
			"kind", string(m.Kind),
			"source", m.Source,
			"mention", m.Name,
		)
	}

	mayMutate := s.SourceMayMutate(m.Source)

	// Stage 1: exact.
	if hit, ok := kindCache.LookupExact(partition, m.Name); ok {
		s.refreshAttributes(ctx, kindCache, hit, m, mayMutate)
		return Resolution{ID: hit.ID, Outcome: OutcomeExact}, nil
	}

	// Stage 2: fuzzy.
	best, bestDist, found := s.bestCandidate(kindCache, partition, m)
	if found && bestDist < s.thresholds.For(m.Kind) {
		if mayMutate {
			s.persistFuzzyMatch(ctx, kindCache, best, m)
		}
		return Resolution{ID: best.ID, Outcome: OutcomeFuzzy, Distance: bestDist}, nil
	}

	// Stage 3: insert or flag.
	if !mayMutate {
		s.flag(ctx, m, partition, review.OutcomePending, bestDist, found)
		return Resolution{Outcome: OutcomeUnresolved}, nil
	}

	res, err := s.insertNew(ctx, kindCache, partition, m)
	if errors.Is(err, errDuplicateRace) {
		// Someone else inserted it; stage 1 picks up their id.
		if hit, ok := kindCache.LookupExact(partition, m.Name); ok {
			return Resolution{ID: hit.ID, Outcome: OutcomeExact}, nil
		}
		s.flag(ctx, m, partition, review.OutcomeProblem, bestDist, found)
		return Resolution{Outcome: OutcomeUnresolved}, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "insert new entity failed",
			"kind", string(m.Kind),
			"source", m.Source,
			"mention", m.Name,
			"error", err,
		)
		s.flag(ctx, m, partition, review.OutcomeProblem, bestDist, found)
		return Resolution{Outcome: OutcomeUnresolved}, nil
	}
	return res, nil
}

// refreshAttributes applies the stage-1/2 attribute merge for a matched
// entity. A backing-store failure here degrades to logging: the id is
// already known, a single lost update must never halt the collection run.
func (s *ResolutionService) refreshAttributes(ctx context.Context, kindCache *cache.ReferenceCache, hit entity.Canonical, m entity.Mention, mayMutate bool) {
	if !mayMutate || m.Kind != entity.KindSubject {
		return
	}
	attrs := mentionAttributes(m)
	if attrs == (entity.Context{}) {
		return
	}

	_ = kindCache.Update(hit.Partition, func(tx *cache.Txn) error {
		update := tx.RecordMatchUpdate(hit.ID, attrs)
		if update.Empty() {
			return nil
		}
		if err := s.store.UpdateAttributes(ctx, hit.ID, update); err != nil {
			s.logger.WarnContext(ctx, "attribute refresh not persisted",
				"id", hit.ID,
				"source", m.Source,
				"error", err,
			)
		}
		return nil
	})
}

func (s *ResolutionService) bestCandidate(kindCache *cache.ReferenceCache, partition string, m entity.Mention) (entity.Canonical, float64, bool) {
	var best entity.Canonical
	bestDist := 0.0
	found := false

	for _, candidate := range kindCache.Scan(partition) {
		dist := s.scorer.Score(m, candidate)
		if !found || dist < bestDist {
			best = candidate
			bestDist = dist
			found = true
		}
	}
	return best, bestDist, found
}

// persistFuzzyMatch records the mention's normalized name as an alt name
// and merges attributes, as one atomic section per partition. Skips the
// alt name when it would alias a different entity in the partition.
func (s *ResolutionService) persistFuzzyMatch(ctx context.Context, kindCache *cache.ReferenceCache, matched entity.Canonical, m entity.Mention) {
	_ = kindCache.Update(matched.Partition, func(tx *cache.Txn) error {
		if tx.RecordAltName(matched.ID, m.Name) {
			if !matched.HasAltName(m.Name) && m.Name != matched.CanonicalName {
				if err := s.store.AppendAltName(ctx, matched.ID, m.Name); err != nil {
					s.logger.WarnContext(ctx, "alt name not persisted",
						"id", matched.ID,
						"alt_name", m.Name,
						"error", err,
					)
				}
			}
		} else {
			s.logger.WarnContext(ctx, "alt name skipped, would alias another entity",
				"id", matched.ID,
				"alt_name", m.Name,
				"partition", matched.Partition,
			)
		}

		if m.Kind == entity.KindSubject {
			update := tx.RecordMatchUpdate(matched.ID, mentionAttributes(m))
			if !update.Empty() {
				if err := s.store.UpdateAttributes(ctx, matched.ID, update); err != nil {
					s.logger.WarnContext(ctx, "attribute refresh not persisted",
						"id", matched.ID,
						"source", m.Source,
						"error", err,
					)
				}
			}
		}
		return nil
	})
}

// insertNew creates a canonical entity from the mention inside the
// partition's exclusive section: re-check, store insert, then both cache
// indexes. A store uniqueness rejection surfaces as errDuplicateRace.
func (s *ResolutionService) insertNew(ctx context.Context, kindCache *cache.ReferenceCache, partition string, m entity.Mention) (Resolution, error) {
	var res Resolution
	err := kindCache.Update(partition, func(tx *cache.Txn) error {
		if hit, ok := tx.LookupExact(m.Name); ok {
			res = Resolution{ID: hit.ID, Outcome: OutcomeExact}
			return nil
		}

		newID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate entity id: %w", err)
		}

		e := entity.Canonical{
			ID:            newID,
			Kind:          m.Kind,
			Partition:     partition,
			CanonicalName: m.Name,
			Team:          strings.TrimSpace(m.Context.Team),
			Position:      strings.TrimSpace(m.Context.Position),
			Jersey:        strings.TrimSpace(m.Context.Jersey),
		}

		storedID, err := s.store.Insert(ctx, e)
		if err != nil {
			if errors.Is(err, entity.ErrDuplicateName) {
				return errDuplicateRace
			}
			return fmt.Errorf("insert entity: %w", err)
		}
		e.ID = storedID

		tx.RecordNew(e)
		res = Resolution{ID: e.ID, Outcome: OutcomeInserted}
		return nil
	})
	if err != nil {
		return Resolution{}, err
	}

	if res.Outcome == OutcomeInserted {
		s.logger.InfoContext(ctx, "new canonical entity inserted",
			"kind", string(m.Kind),
			"id", res.ID,
			"name", m.Name,
			"partition", partition,
			"source", m.Source,
		)
	}
	return res, nil
}

func (s *ResolutionService) flag(ctx context.Context, m entity.Mention, partition string, outcome review.Outcome, bestDist float64, hasCandidate bool) {
	entry := review.Entry{
		Source:       m.Source,
		Kind:         m.Kind,
		Partition:    partition,
		Mention:      m.Name,
		Outcome:      outcome,
		HasCandidate: hasCandidate,
		SeenAt:       time.Now().UTC(),
	}
	if hasCandidate {
		entry.BestDistance = bestDist
	}

	s.tracker.Append(entry)
	if s.reviewRepo != nil {
		if err := s.reviewRepo.Append(ctx, entry); err != nil {
			s.logger.WarnContext(ctx, "review entry not persisted",
				"source", m.Source,
				"mention", m.Name,
				"error", err,
			)
		}
	}
}

func mentionAttributes(m entity.Mention) entity.Context {
	return entity.Context{
		Team:     strings.TrimSpace(m.Context.Team),
		Position: strings.TrimSpace(m.Context.Position),
		Jersey:   strings.TrimSpace(m.Context.Jersey),
	}
}
