package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/personal-reading-tracker/internal/config"
	"github.com/kirillkom/personal-reading-tracker/internal/core/ports"
	"github.com/kirillkom/personal-reading-tracker/internal/core/usecase"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/cache/memory"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/importer/goodreads"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/providers/bestseller"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/providers/curated"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/providers/googlebooks"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/queue/nats"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/resilience"
	"github.com/kirillkom/personal-reading-tracker/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue      ports.ImportQueue
	RecLog     ports.RecommendationLog
	ImportJobs ports.ImportJobRepository

	RecommendUC *usecase.RecommendUseCase
	DiscoverUC  ports.Discoverer
	LibraryUC   ports.LibraryService
	UploadUC    ports.BookImporter
	ProcessUC   ports.ImportProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	libraryRepo := postgres.NewLibraryRepository(db)
	recLogRepo := postgres.NewRecommendationLogRepository(db)
	importJobs := postgres.NewImportJobRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init import storage: %w", err)
	}

	runner := resilience.NewRunner(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{Runner: runner})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	search := googlebooks.New(cfg.GoogleBooksURL, cfg.GoogleBooksAPIKey, runner)
	bestsellers := bestseller.New(cfg.BestsellerFeedURL, cfg.BestsellerFeedAPIKey, runner)
	curatedLists := curated.New()
	recommender := ollama.New(cfg.OllamaURL, cfg.OllamaModel, runner)

	enrichCache := memory.New(
		time.Duration(cfg.EnrichCacheTTLSeconds)*time.Second,
		cfg.EnrichCacheMaxEntries,
	)

	tunables := usecase.Tunables{
		SimilarityFavorites:   cfg.RecSimilarityFavorites,
		SimilarityCap:         cfg.RecSimilarityCap,
		TrendingGenres:        cfg.RecTrendingGenres,
		MinPoolBeforeFallback: cfg.RecMinPoolBeforeFallback,
		FavoriteMinRating:     cfg.RecFavoriteMinRating,
		ReplacementMinRating:  cfg.RecReplacementMinRating,
		Seed:                  cfg.RecSeed,
	}

	recommendUC := usecase.NewRecommendUseCase(
		libraryRepo, recLogRepo, search, bestsellers, curatedLists, enrichCache, tunables,
	)
	discoverUC := usecase.NewDiscoverUseCase(recommender, libraryRepo, recLogRepo)
	libraryUC := usecase.NewLibraryUseCase(libraryRepo)
	uploadUC := usecase.NewUploadImportUseCase(importJobs, storage, queue)
	processUC := usecase.NewProcessImportUseCase(importJobs, storage, goodreads.New(), libraryRepo)

	return &App{
		Config: cfg,

		Queue:      queue,
		RecLog:     recLogRepo,
		ImportJobs: importJobs,

		RecommendUC: recommendUC,
		DiscoverUC:  discoverUC,
		LibraryUC:   libraryUC,
		UploadUC:    uploadUC,
		ProcessUC:   processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
