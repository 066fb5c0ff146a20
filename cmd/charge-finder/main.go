// Package main provides the charge-finder CLI entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chargewise/charge-finder/internal/analytics"
	"github.com/chargewise/charge-finder/internal/api"
	"github.com/chargewise/charge-finder/internal/cache"
	"github.com/chargewise/charge-finder/internal/config"
	"github.com/chargewise/charge-finder/internal/observability"
	"github.com/chargewise/charge-finder/internal/pipeline"
	"github.com/chargewise/charge-finder/internal/storage"
	"github.com/chargewise/charge-finder/internal/translate"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	// Global flags
	cfgFile    string
	outputJSON bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "charge-finder",
	Short: "Find EV charging stations from plain Portuguese requests",
	Long: `charge-finder answers questions like "carregador barato em Lisboa" with
the best matching charging station.

Use this tool to:
- Ask one-off questions from the terminal
- Run the HTTP API
- Seed the station database
- Inspect usage metrics and unmatched inputs`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Missing .env is fine; the environment may already be set.
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := cfg.Observability.LogFormat
		if outputJSON {
			logFormat = "json"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      logFormat,
			ServiceName: "charge-finder",
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// deps bundles everything a command needs, with a single cleanup.
type deps struct {
	store     *storage.Store
	cache     cache.Store
	metrics   *analytics.Metrics
	unmatched *analytics.UnmatchedLog
	finder    *pipeline.Finder
}

func (d *deps) close() {
	if d.cache != nil {
		d.cache.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
}

func openDeps(ctx context.Context) (*deps, error) {
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, err
	}

	var qc cache.Store
	if cfg.Cache.Driver == "redis" {
		qc, err = cache.NewRedisStore(ctx, cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB, cfg.Cache.TTL)
	} else {
		qc, err = cache.NewFileStore(cfg.Cache.Path, cfg.Cache.Capacity)
	}
	if err != nil {
		store.Close()
		return nil, err
	}

	metrics, err := analytics.NewMetrics(cfg.Analytics.MetricsPath)
	if err != nil {
		qc.Close()
		store.Close()
		return nil, err
	}
	unmatched, err := analytics.NewUnmatchedLog(cfg.Analytics.UnmatchedPath)
	if err != nil {
		qc.Close()
		store.Close()
		return nil, err
	}

	var fallback translate.Fallback
	if apiKey := config.FallbackAPIKey(); cfg.Fallback.Enabled && apiKey != "" {
		fallback = translate.NewLLMTranslator(apiKey, cfg.Fallback.Model, cfg.Fallback.BaseURL, cfg.Fallback.Timeout)
	} else {
		logger.Debug().Msg("fallback translator disabled")
	}

	finder := pipeline.NewFinder(pipeline.Options{
		Cache:     qc,
		Fallback:  fallback,
		Searcher:  store,
		Metrics:   metrics,
		Unmatched: unmatched,
		Logger:    logger,
	})

	return &deps{store: store, cache: qc, metrics: metrics, unmatched: unmatched, finder: finder}, nil
}

// newAskCmd creates the ask subcommand.
func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [text]",
		Short: "Answer one free-text request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			d, err := openDeps(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			if _, err := d.store.SeedIfEmpty(ctx, nil); err != nil {
				return err
			}

			res, err := d.finder.Find(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if outputJSON {
				return json.NewEncoder(os.Stdout).Encode(res)
			}

			for _, corr := range res.Corrections {
				color.Yellow("corrigido: %s -> %s", corr.From, corr.To)
			}
			color.Green(res.Message)
			for i, st := range res.Stations {
				avail := color.GreenString("disponível")
				if !st.Available {
					avail = color.RedString("ocupado")
				}
				fmt.Printf("%d. %s, %s | %s EUR/kWh, %d kW, %s, %s (%s)\n",
					i+1, st.Address, titleCity(st.City), st.PricePerKWh.StringFixed(2),
					st.PowerKW, st.Connector, st.Network, avail)
			}
			return nil
		},
	}
}

// newServeCmd creates the serve subcommand.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			d, err := openDeps(ctx)
			if err != nil {
				return err
			}
			defer d.close()

			if _, err := d.store.SeedIfEmpty(ctx, nil); err != nil {
				return err
			}

			handler := api.NewHandler(d.finder, d.store, d.metrics, d.unmatched, logger)
			srv := &http.Server{
				Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
				Handler:      api.NewRouter(logger, handler, api.RouterConfig{RequestTimeout: cfg.Server.RequestTimeout}),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server listening")
				errCh <- srv.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.GracefulShutdown)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// newSeedCmd creates the seed subcommand.
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in station dataset into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			store, err := storage.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			bar := progressbar.Default(int64(len(storage.SeedStations())), "seeding stations")
			n, err := store.SeedIfEmpty(ctx, func(done, total int) {
				bar.Set(done)
			})
			if err != nil {
				return err
			}

			if n == 0 {
				bar.Finish()
				fmt.Println("database already seeded, nothing to do")
				return nil
			}
			fmt.Printf("seeded %d stations\n", n)
			return nil
		},
	}
}

// newStatsCmd creates the stats subcommand.
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show accumulated query metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := analytics.NewMetrics(cfg.Analytics.MetricsPath)
			if err != nil {
				return err
			}
			unmatched, err := analytics.NewUnmatchedLog(cfg.Analytics.UnmatchedPath)
			if err != nil {
				return err
			}

			snap := metrics.Snapshot()
			if outputJSON {
				return json.NewEncoder(os.Stdout).Encode(api.StatsResponse{
					Metrics:   snap,
					Unmatched: unmatched.Top(20),
				})
			}

			fmt.Printf("queries:        %d\n", snap.TotalQueries)
			fmt.Printf("errors:         %d (%.1f%%)\n", snap.Errors, snap.ErrorRate*100)
			fmt.Printf("cache hit rate: %.1f%%\n", snap.CacheHitRate*100)
			fmt.Printf("corrections:    %d\n", snap.Corrections)
			fmt.Printf("fallback calls: %d\n", snap.FallbackCalls)
			fmt.Printf("latency ms:     avg %.1f / median %d / min %d / max %d\n",
				snap.AvgLatencyMS, snap.MedianLatencyMS, snap.MinLatencyMS, snap.MaxLatencyMS)

			if top := unmatched.Top(10); len(top) > 0 {
				fmt.Println("\ntop unmatched inputs:")
				for _, u := range top {
					fmt.Printf("  %4d  %s\n", u.Count, u.Text)
				}
			}
			return nil
		},
	}
}

// titleCity capitalizes a folded city name for display.
func titleCity(city string) string {
	words := strings.Fields(city)
	for i, w := range words {
		if i > 0 && (w == "do" || w == "da" || w == "de") {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("charge-finder %s\n", version)
		},
	}
}
