package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/linemerge/propref/external/feeds"
	"github.com/linemerge/propref/internal/config"
	"github.com/linemerge/propref/internal/domain/entity"
	"github.com/linemerge/propref/internal/domain/matching"
	"github.com/linemerge/propref/internal/domain/offer"
	"github.com/linemerge/propref/internal/domain/review"
	"github.com/linemerge/propref/internal/infrastructure/repository/memory"
	"github.com/linemerge/propref/internal/infrastructure/repository/postgres"
	"github.com/linemerge/propref/internal/interfaces/opsapi"
	idgen "github.com/linemerge/propref/internal/platform/id"
	"github.com/linemerge/propref/internal/platform/logging"
	"github.com/linemerge/propref/internal/platform/resilience"
	"github.com/linemerge/propref/internal/usecase"
)

// App bundles the wired services of one process. Without DB_URL it runs
// fully in memory on the seed corpus, which is how local development and
// the test suite exercise the whole pipeline.
type App struct {
	Resolver  *usecase.ResolutionService
	Ingestion *usecase.IngestionService
	Reviews   *usecase.ReviewService
	Ops       *opsapi.Server

	db *sqlx.DB
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var (
		db         *sqlx.DB
		entityRepo entity.Repository
		reviewRepo review.Repository
		offerRepo  offer.Repository
	)
	if cfg.DBURL != "" {
		conn, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		db = conn
		entityRepo = postgres.NewEntityRepository(db)
		reviewRepo = postgres.NewReviewRepository(db)
		offerRepo = postgres.NewOfferRepository(db)
	} else {
		logger.Warn("DB_URL is empty, running on the in-memory seed corpus")
		entityRepo = memory.NewEntityRepository(memory.SeedEntities())
		reviewRepo = memory.NewReviewRepository()
		offerRepo = memory.NewOfferRepository()
	}

	normalizer := matching.NewNormalizer(matching.DefaultMarketSynonyms())
	scorer := matching.NewScorer(matching.Weights{
		Team:               cfg.MatchTeamWeight,
		TeamNoisy:          cfg.MatchTeamWeightNoisy,
		Position:           cfg.MatchPositionWeight,
		Jersey:             cfg.MatchJerseyWeight,
		NameDampingPerAttr: cfg.MatchNameDamping,
	}, cfg.MatchNoisyTeamPartitions)
	thresholds := matching.Thresholds{
		Subject: cfg.MatchSubjectThreshold,
		Market:  cfg.MatchMarketThreshold,
		Team:    cfg.MatchTeamThreshold,
		League:  cfg.MatchLeagueThreshold,
	}

	resolver := usecase.NewResolutionService(
		entityRepo,
		normalizer,
		scorer,
		thresholds,
		cfg.SourcesReadOnly,
		review.NewTracker(),
		reviewRepo,
		idgen.NewRandomGenerator(),
		logger,
	)
	if err := resolver.WarmLoad(ctx); err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("warm-load reference caches: %w", err)
	}

	feedClient := feeds.NewClient(feeds.ClientConfig{
		URLBySource: cfg.FeedURLBySource,
		Timeout:     cfg.FeedTimeout,
		MaxRetries:  cfg.FeedMaxRetries,
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMax,
		},
	})

	ingestion := usecase.NewIngestionService(
		resolver,
		feedClient,
		offerRepo,
		idgen.NewRandomGenerator(),
		cfg.ResolveWorkers,
		logger,
	)
	reviews := usecase.NewReviewService(resolver.Tracker(), reviewRepo, logger)

	return &App{
		Resolver:  resolver,
		Ingestion: ingestion,
		Reviews:   reviews,
		Ops:       opsapi.NewServer(resolver, reviews, logger),
		db:        db,
	}, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)

	return db, nil
}
