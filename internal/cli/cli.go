package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/swim-times/internal/config"
	"github.com/pfrederiksen/swim-times/internal/ingest"
	"github.com/pfrederiksen/swim-times/internal/logger"
	"github.com/pfrederiksen/swim-times/internal/scraper"
	"github.com/pfrederiksen/swim-times/internal/storage/postgres"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Store is the relational store the ingest, meets and swimmers commands use
type Store interface {
	ingest.Repository
	ListMeets(ctx context.Context) ([]swim.Meet, error)
	ListSwimmers(ctx context.Context) ([]swim.Swimmer, error)
	UpsertSwimmer(ctx context.Context, s swim.Swimmer) error
	SetSwimmerActive(ctx context.Context, swimmerID int64, active bool) error
	ListTimes(ctx context.Context, swimmerID int64) ([]swim.TimeRecord, error)
}

// StoreOpener connects to the store at dbURL. The returned func releases it.
type StoreOpener func(ctx context.Context, dbURL string) (Store, func() error, error)

// app carries state shared by every command of one invocation
type app struct {
	cfg       *config.Config
	openStore StoreOpener

	flagConfig    string
	flagLogLevel  string
	flagDBURL     string
	flagBaseURL   string
	flagWorkers   int
	flagURLsFile  string
	flagStandards string
	flagCacheFile string
}

// Option configures the root command
type Option func(*app)

// WithStoreOpener replaces the PostgreSQL store, e.g. with an in-memory one
func WithStoreOpener(open StoreOpener) Option {
	return func(a *app) {
		a.openStore = open
	}
}

func openPostgres(ctx context.Context, dbURL string) (Store, func() error, error) {
	db, err := postgres.Open(ctx, dbURL)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewRepository(db), db.Close, nil
}

// NewRootCmd creates the root command
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{openStore: openPostgres}
	for _, opt := range opts {
		opt(a)
	}
	return newRootCmd(a)
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swim-times",
		Short: "Collect and review competitive swim times",
		Long: `A tool to collect competitive swim results.

It scrapes meet result pages for registered swimmers into PostgreSQL, and
serves a dashboard of personal bests and time progressions built from
swimmer profile pages.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.flagConfig, "config", "", "Path to a YAML config file (default $SWIMTIMES_CONFIG)")
	pf.StringVar(&a.flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&a.flagDBURL, "db-url", "", "PostgreSQL connection string")
	pf.StringVar(&a.flagBaseURL, "base-url", "", "Meet results site")
	pf.IntVar(&a.flagWorkers, "workers", 0, "Concurrent page fetches per stage")
	pf.StringVar(&a.flagURLsFile, "urls-file", "", "File listing swimmer profile URLs")
	pf.StringVar(&a.flagStandards, "standards-file", "", "CSV of time standards")
	pf.StringVar(&a.flagCacheFile, "cache-file", "", "Dashboard cache file")

	cmd.AddCommand(
		newIngestCmd(a),
		newTimesCmd(a),
		newMeetsCmd(a),
		newServeCmd(a),
		newMigrateCmd(a),
		newSwimmersCmd(a),
	)
	return cmd
}

// setup loads the configuration, applies flag overrides and installs the logger
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	cfg, err := config.Load(cmd.Context(), a.flagConfig, func(cfg *config.Config) {
		if flags.Changed("log-level") {
			cfg.LogLevel = a.flagLogLevel
		}
		if flags.Changed("db-url") {
			cfg.DBURL = a.flagDBURL
		}
		if flags.Changed("base-url") {
			cfg.BaseURL = a.flagBaseURL
		}
		if flags.Changed("workers") {
			cfg.Workers = a.flagWorkers
		}
		if flags.Changed("urls-file") {
			cfg.URLsFile = a.flagURLsFile
		}
		if flags.Changed("standards-file") {
			cfg.StandardsFile = a.flagStandards
		}
		if flags.Changed("cache-file") {
			cfg.CacheFile = a.flagCacheFile
		}
	})
	if err != nil {
		return err
	}

	logger.SetDefault(logger.New(logger.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr()))
	a.cfg = cfg

	logger.Debug("Configuration loaded", logger.Fields{
		"base_url": cfg.BaseURL,
		"workers":  cfg.Workers,
		"config":   a.flagConfig,
	})
	return nil
}

func (a *app) scraper() *scraper.Scraper {
	return scraper.New(
		scraper.WithBaseURL(a.cfg.BaseURL),
		scraper.WithUserAgent(a.cfg.UserAgent),
		scraper.WithTimeout(a.cfg.HTTPTimeout),
	)
}

// withStore opens the store for the duration of fn
func (a *app) withStore(ctx context.Context, fn func(Store) error) error {
	if err := a.cfg.RequireDB(); err != nil {
		return err
	}
	store, closeStore, err := a.openStore(ctx, a.cfg.DBURL)
	if err != nil {
		return errors.Wrap(err, "opening store")
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close store", nil, err)
		}
	}()
	return fn(store)
}

// Execute runs the CLI and returns the process exit code
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	_ = logger.Default().Sync()
	return ExitSuccess
}
