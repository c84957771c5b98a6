package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/swim-times/internal/calendar"
	"github.com/pfrederiksen/swim-times/internal/config"
	"github.com/pfrederiksen/swim-times/internal/dashboard"
	"github.com/pfrederiksen/swim-times/internal/filter"
	"github.com/pfrederiksen/swim-times/internal/ingest"
	"github.com/pfrederiksen/swim-times/internal/logger"
	"github.com/pfrederiksen/swim-times/internal/server"
	"github.com/pfrederiksen/swim-times/internal/storage"
	"github.com/pfrederiksen/swim-times/internal/storage/postgres"
	"github.com/pfrederiksen/swim-times/internal/swim"
)

func newIngestCmd(a *app) *cobra.Command {
	var (
		dryRun bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Scrape meet results of active swimmers into the store",
		Long: `Scrape the meet list of every active swimmer, fetch the result pages that
are not stored yet and append the new meets, swimmers, teams and times.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := ParseFormat(format)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store Store) error {
				p := ingest.New(store, a.scraper(),
					ingest.WithWorkers(a.cfg.Workers),
					ingest.WithDryRun(dryRun),
				)
				report, err := p.Run(cmd.Context())
				if err != nil {
					return err
				}
				return WriteReport(cmd.OutOrStdout(), report, outFormat)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be inserted without writing")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

// dashboardService builds the profile-page data service from the config
func (a *app) dashboardService() (*dashboard.Service, error) {
	urlsFile, err := config.ExpandPath(a.cfg.URLsFile)
	if err != nil {
		return nil, err
	}
	urls, err := dashboard.LoadURLFile(urlsFile)
	if err != nil {
		return nil, err
	}

	standardsFile, err := config.ExpandPath(a.cfg.StandardsFile)
	if err != nil {
		return nil, err
	}
	standards, err := dashboard.LoadStandards(standardsFile)
	if err != nil {
		return nil, err
	}

	var cache *storage.Cache
	if a.cfg.CacheFile != "" {
		if cache, err = storage.NewCache(a.cfg.CacheFile, a.cfg.CacheTTL); err != nil {
			return nil, err
		}
	}

	logger.Debug("Dashboard sources loaded", logger.Fields{
		"urls":      len(urls),
		"standards": len(standards.Columns),
	})
	return dashboard.NewService(a.scraper(), cache, urls, standards, a.cfg.Workers), nil
}

func newTimesCmd(a *app) *cobra.Command {
	var (
		format    string
		sortBy    string
		swimmers  []string
		events    []string
		course    string
		dateRange string
		pbOnly    bool
		refresh   bool
	)

	cmd := &cobra.Command{
		Use:   "times",
		Short: "List times from swimmer profile pages",
		Long: `List every time on the configured swimmer profile pages, optionally
narrowed by swimmer, event, course, date range or personal bests.

Examples:
  swim-times times --swimmer ada --event free
  swim-times times --course L --range 2023 --sort time
  swim-times times --pb --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := ParseFormat(format)
			if err != nil {
				return err
			}
			order, err := dashboard.ParseSortOrder(sortBy)
			if err != nil {
				return err
			}

			f := filter.NewFilter()
			f.Swimmers = swimmers
			f.Events = events
			f.PersonalBestsOnly = pbOnly
			if f.Course, err = filter.ParseCourse(course); err != nil {
				return err
			}
			if dateRange != "" {
				if f.DateFrom, f.DateTo, err = filter.ParseDateRange(dateRange); err != nil {
					return err
				}
			}

			svc, err := a.dashboardService()
			if err != nil {
				return err
			}
			if refresh {
				if err := svc.Refresh(); err != nil {
					return err
				}
			}
			data, err := svc.Data(cmd.Context())
			if err != nil {
				return err
			}

			results := f.Apply(data.Results)
			dashboard.SortResults(results, order)
			out := &TimesResult{
				FetchedAt: data.FetchedAt,
				Count:     len(results),
				Results:   results,
			}
			if !f.IsEmpty() {
				out.Filter = f.String()
			}
			return WriteTimes(cmd.OutOrStdout(), out, outFormat)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&format, "format", "text", "Output format: text or json")
	flags.StringVar(&sortBy, "sort", "date", "Sort order: date, event, swimmer or time")
	flags.StringSliceVar(&swimmers, "swimmer", nil, "Swimmer name substring (repeatable)")
	flags.StringSliceVar(&events, "event", nil, "Event name substring (repeatable)")
	flags.StringVar(&course, "course", "", "Course: Y, S or L")
	flags.StringVar(&dateRange, "range", "", "Date range: 2023, 'Jun 2023' or 2023-06-01..2023-09-30")
	flags.BoolVar(&pbOnly, "pb", false, "Only personal bests")
	flags.BoolVar(&refresh, "refresh", false, "Ignore the cache and fetch the profile pages again")
	return cmd
}

func newMeetsCmd(a *app) *cobra.Command {
	var (
		format  string
		icsFile string
	)

	cmd := &cobra.Command{
		Use:   "meets",
		Short: "List stored meets, optionally as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := ParseFormat(format)
			if err != nil {
				return err
			}

			return a.withStore(cmd.Context(), func(store Store) error {
				meets, err := store.ListMeets(cmd.Context())
				if err != nil {
					return err
				}
				if icsFile == "" {
					return WriteMeets(cmd.OutOrStdout(), meets, outFormat)
				}

				if icsFile == "-" {
					return calendar.WriteICS(cmd.OutOrStdout(), meets, a.cfg.BaseURL, time.Now())
				}
				if err := writeCalendarFile(icsFile, meets, a.cfg.BaseURL); err != nil {
					return err
				}
				logger.Info("Wrote meet calendar", logger.Fields{"path": icsFile, "meets": len(meets)})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&icsFile, "ics", "", "Write meets as iCalendar to this file ('-' for stdout)")
	return cmd
}

// writeCalendarFile writes meets to path; a failed close fails the write
func writeCalendarFile(path string, meets []swim.Meet, baseURL string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating calendar file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing calendar file")
		}
	}()
	return calendar.WriteICS(f, meets, baseURL, time.Now())
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the personal-best dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			svc, err := a.dashboardService()
			if err != nil {
				return err
			}
			srv, err := server.New(svc)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context(), a.cfg.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8501)")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(fn func(*postgres.Migrator, []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireDB(); err != nil {
				return err
			}
			m, err := postgres.NewMigrator(a.cfg.DBURL)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					logger.Warn("Failed to close migrator", nil, err)
				}
			}()
			return fn(m, args)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(m *postgres.Migrator, _ []string) error {
			if err := m.Up(); err != nil {
				return err
			}
			logger.Info("Schema is up to date", nil)
			return nil
		}),
	}

	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(m *postgres.Migrator, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return errors.Newf("invalid steps %q", args[0])
				}
				steps = n
			}
			if err := m.Down(steps); err != nil {
				return err
			}
			logger.Info("Rolled back migrations", logger.Fields{"steps": steps})
			return nil
		}),
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(m *postgres.Migrator, _ []string) error {
				v, dirty, ok, err := m.Version()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case !ok:
					fmt.Fprintln(out, "No migrations applied")
				case dirty:
					fmt.Fprintf(out, "Version %d (dirty)\n", v)
				default:
					fmt.Fprintf(out, "Version %d\n", v)
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func newSwimmersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swimmers",
		Short: "Manage the swimmers whose meets are ingested",
	}

	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered swimmers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(store Store) error {
				swimmers, err := store.ListSwimmers(cmd.Context())
				if err != nil {
					return err
				}
				return WriteSwimmers(cmd.OutOrStdout(), swimmers, outFormat)
			})
		},
	}
	list.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	add := &cobra.Command{
		Use:   "add <swimmer-id> <full name>",
		Short: "Register a swimmer, or reactivate one",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSwimmerID(args[0])
			if err != nil {
				return err
			}
			sw := swim.NewSwimmer(id, strings.Join(args[1:], " "))
			return a.withStore(cmd.Context(), func(store Store) error {
				if err := store.UpsertSwimmer(cmd.Context(), sw); err != nil {
					return err
				}
				logger.Info("Swimmer registered", logger.Fields{"swimmer_id": id, "name": sw.FullName})
				return nil
			})
		},
	}

	deactivate := &cobra.Command{
		Use:   "deactivate <swimmer-id>",
		Short: "Stop ingesting a swimmer's meets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSwimmerID(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(store Store) error {
				if err := store.SetSwimmerActive(cmd.Context(), id, false); err != nil {
					return err
				}
				logger.Info("Swimmer deactivated", logger.Fields{"swimmer_id": id})
				return nil
			})
		},
	}

	var timesFormat string
	times := &cobra.Command{
		Use:   "times <swimmer-id>",
		Short: "Show the times stored for a swimmer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSwimmerID(args[0])
			if err != nil {
				return err
			}
			outFormat, err := ParseFormat(timesFormat)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(store Store) error {
				records, err := store.ListTimes(cmd.Context(), id)
				if err != nil {
					return err
				}
				snap, err := store.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				return WriteStoredTimes(cmd.OutOrStdout(), joinStoredTimes(records, snap), outFormat)
			})
		},
	}
	times.Flags().StringVar(&timesFormat, "format", "text", "Output format: text or json")

	cmd.AddCommand(list, add, deactivate, times)
	return cmd
}

func parseSwimmerID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Newf("invalid swimmer id %q", s)
	}
	return id, nil
}
