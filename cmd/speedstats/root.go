package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/api"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/cache"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/client"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/logging"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/metrics"
	"github.com/ColasDroin/SpeedStats-V2-public/pkg/scraper"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds what the commands share once the root command has set up.
type app struct {
	cfg          Config
	output       string
	forceRefresh bool

	orch    *scraper.Orchestrator
	cache   *cache.Manager
	closers []func()
}

func newApp(cfg Config) *app {
	return &app{cfg: cfg}
}

func newRootCmd(a *app) *cobra.Command {
	cfg := a.cfg

	root := &cobra.Command{
		Use:   "speedstats",
		Short: "Scrape speedrun.com leaderboards into JSON run dumps",
		Long: `speedstats walks speedrun.com from series to games, categories and
leaderboard pages, and writes every verified run as a denormalized record.

Examples:
  speedstats all --output data/runs.json
  speedstats series rv7emz49 "Mario" --output data/mario.json
  speedstats game o1y9wo6q "Super Mario 64" --output data/sm64.json`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				a.close()
				return err
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.output, "output", "o", "data/runs.json", "output JSON path (batch files derive from it)")
	flags.IntVar(&a.cfg.Concurrency, "concurrency", cfg.Concurrency, "requests per wave")
	flags.IntVar(&a.cfg.BatchSize, "batch-size", cfg.BatchSize, "games per batch file")
	flags.StringVar(&a.cfg.Checkpoint, "checkpoint", cfg.Checkpoint, "game queue checkpoint path")
	flags.StringVar(&a.cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&a.cfg.LogFile, "log-file", cfg.LogFile, "also write debug logs to this file (truncated at start)")
	flags.StringVar(&a.cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (e.g. :9090)")

	root.AddCommand(newAllCmd(a), newSeriesCmd(a), newGameCmd(a))
	return root
}

func newAllCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Scrape every series and game, one batch file per game batch",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, args []string) error {
			if a.forceRefresh && a.cache != nil {
				if err := a.purgeListings(ctx); err != nil {
					return err
				}
			}
			return a.orch.ExploreAll(ctx, a.output, a.forceRefresh)
		}),
	}
	cmd.Flags().BoolVar(&a.forceRefresh, "force-refresh", false, "rediscover the game queue and redo finished batches")
	return cmd
}

func newSeriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "series <id> <name>",
		Short: "Scrape the games of one series",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, args []string) error {
			return a.orch.ScrapeSeries(ctx, a.output, args[0], args[1])
		}),
	}
}

func newGameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "game <id> <name>",
		Short: "Scrape a single game",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, args []string) error {
			return a.orch.ScrapeGame(ctx, a.output, args[0], args[1])
		}),
	}
}

// setup configures logging, metrics, the cache and the orchestrator.
func (a *app) setup(ctx context.Context) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(a.cfg.LogLevel)
	logCfg.Pretty = true
	if a.cfg.LogFile != "" {
		f, err := logging.OpenLogFile(a.cfg.LogFile)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { f.Close() })
		logCfg.File = f
	}
	logging.Setup(logCfg)
	log.Logger = log.With().Str("scrape_id", uuid.NewString()).Logger()

	if a.cfg.MetricsAddr != "" {
		a.serveMetrics(a.cfg.MetricsAddr)
	}

	clientCfg := client.DefaultConfig(a.cfg.UserAgent)
	clientCfg.BaseURL = a.cfg.BaseURL
	if a.cfg.RedisURL != "" {
		manager, err := a.connectCache(ctx)
		if err != nil {
			return err
		}
		clientCfg.Cache = manager
		a.cache = manager
	}

	transport, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	a.orch, err = scraper.New(api.NewClient(transport), a.cfg.scraperConfig())
	if err != nil {
		return fmt.Errorf("create scraper: %w", err)
	}
	return nil
}

func (a *app) connectCache(ctx context.Context) (*cache.Manager, error) {
	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	redisClient := redis.NewClient(opts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { redisClient.Close() })

	log.Info().Str("addr", opts.Addr).Dur("ttl", a.cfg.CacheTTL).Msg("Response cache enabled")
	return cache.NewManager(redisClient, a.cfg.CacheTTL), nil
}

// purgeListings drops the cached discovery listings, so a forced refresh
// sees series and games added since they were cached.
func (a *app) purgeListings(ctx context.Context) error {
	listings := []api.Request{api.SeriesListRequest(1), api.GameListRequest(1)}
	for _, id := range a.cfg.scraperConfig().V1Series {
		listings = append(listings, api.SeriesGamesV1Request(id, 0))
	}

	for _, req := range listings {
		removed, err := a.cache.Purge(ctx, req.Version, req.Endpoint)
		if err != nil {
			return fmt.Errorf("purge cached %s: %w", req.Endpoint, err)
		}
		log.Info().Str("endpoint", req.Endpoint).Int("removed", removed).Msg("Purged cached listing")
	}
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
}

// run wraps a command body so resources opened by setup are released
// whatever the outcome.
func (a *app) run(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()

		start := time.Now()
		if err := fn(cmd.Context(), args); err != nil {
			return err
		}
		log.Info().Str("command", cmd.Name()).Str("output", a.output).Dur("duration", time.Since(start)).Msg("Scrape complete")
		return nil
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
