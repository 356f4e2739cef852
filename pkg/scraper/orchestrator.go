package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/checkpoint"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/logging"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "speedstats_batches_total",
	Help: "Total number of game batches by outcome",
}, []string{"outcome"})

// Orchestrator owns the scrape state and drives the pipeline.
type Orchestrator struct {
	api       *api.Client
	config    Config
	state     *State
	collector *Collector
	shapes    ShapePicker

	excludedGames      map[string]struct{}
	excludedCategories map[string]struct{}

	logger zerolog.Logger
}

// New creates an orchestrator with fresh state.
func New(client *api.Client, cfg Config) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be > 0 (got %d)", cfg.BatchSize)
	}
	if cfg.QueuePath == "" {
		cfg.QueuePath = checkpoint.DefaultQueuePath
	}
	if cfg.V1SeriesMax <= 0 {
		cfg.V1SeriesMax = DefaultConfig().V1SeriesMax
	}

	shapes := cfg.Shapes
	if shapes == nil {
		shapes = NewRandomShapes(uint64(time.Now().UnixNano()))
	}

	state := NewState()
	return &Orchestrator{
		api:                client,
		config:             cfg,
		state:              state,
		collector:          NewCollector(client, state),
		shapes:             shapes,
		excludedGames:      toSet(cfg.ExcludedGames),
		excludedCategories: toSet(cfg.ExcludedCategories),
		logger:             logging.NewLogger("orchestrator"),
	}, nil
}

// State returns the shared scrape state.
func (o *Orchestrator) State() *State {
	return o.state
}

// ExploreAll scrapes every game on the site in batches of BatchSize games.
// Batch i is dumped to checkpoint.BatchPath(outputPath, i); batches already
// on disk are skipped unless forceRefresh is set, which also rediscovers the
// game queue.
func (o *Orchestrator) ExploreAll(ctx context.Context, outputPath string, forceRefresh bool) error {
	o.logger.Info().Str("path", outputPath).Msgf("Will output runs to path %s", outputPath)

	games, err := o.gameQueue(ctx, forceRefresh)
	if err != nil {
		return err
	}

	batches := splitBatches(games, o.config.BatchSize)
	o.logger.Info().
		Int("games", len(games)).
		Int("batches", len(batches)).
		Msg("Game queue ready")

	for idx, batch := range batches {
		path := checkpoint.BatchPath(outputPath, idx)
		if !forceRefresh && checkpoint.Exists(path) {
			o.logger.Info().Int("batch", idx).Str("path", path).
				Msgf("Skipping batch %d as it has already been processed.", idx)
			batchesTotal.WithLabelValues("skipped").Inc()
			continue
		}

		start := time.Now()
		o.state.Runs.Reset()
		if err := o.scrapeGames(ctx, batch); err != nil {
			return fmt.Errorf("batch %d: %w", idx, err)
		}
		if err := checkpoint.DumpRuns(path, o.state.Runs.Runs()); err != nil {
			return fmt.Errorf("batch %d: %w", idx, err)
		}

		batchesTotal.WithLabelValues("processed").Inc()
		o.logger.Info().
			Int("batch", idx).
			Int("runs", o.state.Runs.Len()).
			Str("path", path).
			Dur("duration", time.Since(start)).
			Msg("Batch complete")
	}
	return nil
}

// ScrapeSeries scrapes the games of one series and dumps all runs to path.
func (o *Orchestrator) ScrapeSeries(ctx context.Context, path, seriesID, seriesName string) error {
	series := api.Overview{ID: seriesID, Name: seriesName}
	o.state.Registry.Series.Insert(series.ID, series.Name)

	games, err := o.exploreSeries(ctx, series)
	if err != nil {
		return err
	}
	if err := o.scrapeGames(ctx, games); err != nil {
		return err
	}
	return checkpoint.DumpRuns(path, o.state.Runs.Runs())
}

// ScrapeGame scrapes a single game outside of any series and dumps its runs
// to path.
func (o *Orchestrator) ScrapeGame(ctx context.Context, path, gameID, gameName string) error {
	games := []api.GameOverview{{ID: gameID, Name: gameName}}
	if err := o.scrapeGames(ctx, games); err != nil {
		return err
	}
	return checkpoint.DumpRuns(path, o.state.Runs.Runs())
}

// scrapeGames runs games → categories → leaderboard pages into the run
// buffer.
func (o *Orchestrator) scrapeGames(ctx context.Context, games []api.GameOverview) error {
	reg := o.state.Registry

	categories, err := expand(ctx, o.config.Wave, games, gameIdentity, reg.Games, o.excludedGames, o.exploreGame)
	if err != nil {
		return fmt.Errorf("explore games: %w", err)
	}

	requests, err := expand(ctx, o.config.Wave, categories, categoryIdentity, reg.Categories, o.excludedCategories, o.exploreCategory)
	if err != nil {
		return fmt.Errorf("explore categories: %w", err)
	}

	if err := o.collectRequests(ctx, requests); err != nil {
		return fmt.Errorf("collect leaderboards: %w", err)
	}
	return nil
}

// gameQueue loads the checkpointed queue or discovers and checkpoints a
// fresh one.
func (o *Orchestrator) gameQueue(ctx context.Context, forceRefresh bool) ([]api.GameOverview, error) {
	path := o.config.QueuePath

	if !forceRefresh && checkpoint.Exists(path) {
		q, err := checkpoint.LoadQueue(path)
		if err == nil {
			for _, s := range q.Series {
				o.state.Registry.Series.Insert(s.ID, s.Name)
			}
			o.logger.Info().
				Str("path", path).
				Int("series", len(q.Series)).
				Int("games", len(q.Games)).
				Time("created_at", q.CreatedAt).
				Msg("Loaded game queue checkpoint")
			return q.Games, nil
		}

		event := o.logger.Warn().Err(err).Str("path", path)
		if errors.Is(err, checkpoint.ErrUnsupportedVersion) {
			event.Msg("Checkpoint format changed, rediscovering games")
		} else {
			event.Msg("Unreadable checkpoint, rediscovering games")
		}
	}

	q, err := o.discover(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkpoint.SaveQueue(path, *q); err != nil {
		return nil, err
	}
	return q.Games, nil
}

// discover lists every series and its games, then every game. A game listed
// both ways keeps its series, since the series entry is queued first and
// later duplicates are skipped by the Games registry.
func (o *Orchestrator) discover(ctx context.Context) (*checkpoint.Queue, error) {
	series, err := pagination.FetchAll(ctx, "series", func(ctx context.Context, page int) ([]api.Overview, int, error) {
		resp, err := o.api.GetSeriesList(ctx, page)
		if err != nil {
			return nil, 0, err
		}
		return resp.SeriesList, resp.Pagination.Pages, nil
	}, o.config.Wave)
	if err != nil {
		return nil, err
	}

	games, err := expand(ctx, o.config.Wave, series, seriesIdentity, o.state.Registry.Series, nil, o.exploreSeries)
	if err != nil {
		return nil, fmt.Errorf("explore series: %w", err)
	}

	all, err := pagination.FetchAll(ctx, "games", func(ctx context.Context, page int) ([]api.Overview, int, error) {
		resp, err := o.api.GetGameList(ctx, page)
		if err != nil {
			return nil, 0, err
		}
		return resp.GameList, resp.Pagination.Pages, nil
	}, o.config.Wave)
	if err != nil {
		return nil, err
	}
	for _, g := range all {
		games = append(games, api.GameOverview{ID: g.ID, Name: g.Name})
	}

	return &checkpoint.Queue{Series: series, Games: games}, nil
}

func splitBatches[T any](items []T, size int) [][]T {
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
