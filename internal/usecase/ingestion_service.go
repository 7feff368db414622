package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/linemerge/propref/internal/domain/entity"
	"github.com/linemerge/propref/internal/domain/offer"
	idgen "github.com/linemerge/propref/internal/platform/id"
	"github.com/linemerge/propref/internal/platform/logging"
)

// RawOffer is one prop price as a feed collaborator reported it, before
// any entity resolution.
type RawOffer struct {
	SubjectName string
	MarketName  string
	TeamName    string
	Position    string
	Jersey      string
	League      string
	Sport       string
	Line        float64
	OverPrice   int
	UnderPrice  int
}

// FeedClient is the boundary to the per-bookmaker scrapers. Each call
// returns the current snapshot of one source's prop offers.
type FeedClient interface {
	FetchOffers(ctx context.Context, source string) ([]RawOffer, error)
}

// CollectionResult summarizes one collection run for logs and operators.
type CollectionResult struct {
	Sources    int   `json:"sources"`
	Offers     int   `json:"offers"`
	Resolved   int   `json:"resolved"`
	Unresolved int   `json:"unresolved"`
	FailedSrc  int   `json:"failed_sources"`
	DurationMs int64 `json:"duration_ms"`
}

// IngestionService drives collection runs: it fans out across sources,
// resolves every mention through the shared resolver, and stores offers
// with whatever ids resolution yielded.
type IngestionService struct {
	resolver  *ResolutionService
	feed      FeedClient
	offerRepo offer.Repository
	idGen     idgen.Generator
	logger    *logging.Logger
	workers   int
}

func NewIngestionService(
	resolver *ResolutionService,
	feed FeedClient,
	offerRepo offer.Repository,
	generator idgen.Generator,
	workers int,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	if generator == nil {
		generator = idgen.NewRandomGenerator()
	}
	if workers < 1 {
		workers = 8
	}

	return &IngestionService{
		resolver:  resolver,
		feed:      feed,
		offerRepo: offerRepo,
		idGen:     generator,
		logger:    logger,
		workers:   workers,
	}
}

// CollectAll runs one collection pass over the given sources. Source
// fetches run concurrently; mention resolution shares one bounded worker
// pool across all sources. A failing source never aborts the run.
func (s *IngestionService) CollectAll(ctx context.Context, sources []string) (CollectionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.CollectAll")
	defer span.End()

	if len(sources) == 0 {
		return CollectionResult{}, fmt.Errorf("%w: sources are required", ErrInvalidInput)
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return CollectionResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	start := time.Now()
	var offersCount, resolvedCount, unresolvedCount, failedSources atomic.Int64

	var wg conc.WaitGroup
	for _, source := range sources {
		source := strings.ToLower(strings.TrimSpace(source))
		if source == "" {
			continue
		}
		wg.Go(func() {
			collected, resolved, unresolved, err := s.collectSource(ctx, pool, source)
			if err != nil {
				failedSources.Add(1)
				s.logger.WarnContext(ctx, "source collection failed",
					"source", source,
					"error", err,
				)
				return
			}
			offersCount.Add(int64(collected))
			resolvedCount.Add(int64(resolved))
			unresolvedCount.Add(int64(unresolved))
		})
	}
	wg.Wait()

	result := CollectionResult{
		Sources:    len(sources),
		Offers:     int(offersCount.Load()),
		Resolved:   int(resolvedCount.Load()),
		Unresolved: int(unresolvedCount.Load()),
		FailedSrc:  int(failedSources.Load()),
		DurationMs: time.Since(start).Milliseconds(),
	}
	s.logger.InfoContext(ctx, "collection run finished",
		"sources", result.Sources,
		"offers", result.Offers,
		"resolved", result.Resolved,
		"unresolved", result.Unresolved,
		"failed_sources", result.FailedSrc,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (s *IngestionService) collectSource(ctx context.Context, pool *ants.Pool, source string) (collected, resolved, unresolved int, err error) {
	raws, err := s.feed.FetchOffers(ctx, source)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("fetch offers source=%s: %w", source, err)
	}
	if len(raws) == 0 {
		return 0, 0, 0, nil
	}

	offers := make([]offer.PropOffer, len(raws))
	var resolvedCount, unresolvedCount atomic.Int64

	var workers sync.WaitGroup
	for i, raw := range raws {
		i, raw := i, raw
		workers.Add(1)
		if submitErr := pool.Submit(func() {
			defer workers.Done()
			offers[i] = s.resolveOffer(ctx, source, raw, &resolvedCount, &unresolvedCount)
		}); submitErr != nil {
			workers.Done()
			return 0, 0, 0, fmt.Errorf("submit resolution task: %w", submitErr)
		}
	}
	workers.Wait()

	if s.offerRepo != nil {
		if err := s.offerRepo.InsertBatch(ctx, offers); err != nil {
			s.logger.WarnContext(ctx, "offer batch not persisted",
				"source", source,
				"offers", len(offers),
				"error", err,
			)
		}
	}

	return len(offers), int(resolvedCount.Load()), int(unresolvedCount.Load()), nil
}

// resolveOffer resolves the subject and market mentions of one raw offer.
// Unresolved is an expected outcome: the offer keeps its raw names and a
// null id, it is never dropped.
func (s *IngestionService) resolveOffer(ctx context.Context, source string, raw RawOffer, resolved, unresolved *atomic.Int64) offer.PropOffer {
	mentionCtx := entity.Context{
		League:   raw.League,
		Sport:    raw.Sport,
		Team:     raw.TeamName,
		Position: raw.Position,
		Jersey:   raw.Jersey,
	}

	out := offer.PropOffer{
		Source:      source,
		League:      strings.ToUpper(strings.TrimSpace(raw.League)),
		SubjectName: strings.TrimSpace(raw.SubjectName),
		MarketName:  strings.TrimSpace(raw.MarketName),
		Line:        raw.Line,
		OverPrice:   raw.OverPrice,
		UnderPrice:  raw.UnderPrice,
		SeenAt:      time.Now().UTC(),
	}
	if id, err := s.idGen.NewID(); err == nil {
		out.ID = id
	}

	subject, err := s.resolver.Resolve(ctx, entity.Mention{
		Kind:    entity.KindSubject,
		Name:    raw.SubjectName,
		Source:  source,
		Context: mentionCtx,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "subject resolution rejected",
			"source", source,
			"mention", raw.SubjectName,
			"error", err,
		)
	}

	market, err := s.resolver.Resolve(ctx, entity.Mention{
		Kind:    entity.KindMarket,
		Name:    raw.MarketName,
		Source:  source,
		Context: mentionCtx,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "market resolution rejected",
			"source", source,
			"mention", raw.MarketName,
			"error", err,
		)
	}

	if subject.Resolved() {
		out.SubjectID = subject.ID
	}
	if market.Resolved() {
		out.MarketID = market.ID
	}
	if subject.Resolved() && market.Resolved() {
		resolved.Add(1)
	} else {
		unresolved.Add(1)
	}
	return out
}
