package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/komsit37/kabu/pkg/kabu/fixture"
	"github.com/komsit37/kabu/pkg/kabu/source"
	"github.com/komsit37/kabu/pkg/kabu/yahoo"
)

type fixturesFlags struct {
	cleanOnly bool
	noClean   bool
	schedule  string
}

func newFixturesCmd(a *app) *cobra.Command {
	var f fixturesFlags

	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Record live upstream responses as fixture files",
		Long: `Fetch info and price history for each symbol and store them as
timestamped JSON files for the fixture provider.

Examples:
  kabu fixtures
  kabu fixtures --symbols 7203.T,6758.T --period 1mo
  kabu fixtures --clean-only
  kabu fixtures --no-clean --schedule "0 16 * * MON-FRI"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFixtures(cmd.Context(), cmd.OutOrStdout(), a, f)
		},
	}

	fl := cmd.Flags()
	fl.String("symbols", "8194.T,9699.T,9715.T", "comma separated symbols")
	fl.String("period", "5d", "history period")
	fl.Duration("delay", 2*time.Second, "pause between symbols")
	fl.String("output-dir", "test_data", "fixture directory")
	fl.Duration("dedup-window", fixture.DefaultDedupWindow, "skip a capture this close to the previous one")
	fl.BoolVar(&f.cleanOnly, "clean-only", false, "only remove existing fixtures of the symbols")
	fl.BoolVar(&f.noClean, "no-clean", false, "keep existing fixtures")
	fl.StringVar(&f.schedule, "schedule", "", "cron spec; record repeatedly until interrupted")
	bindFlags(fl, map[string]string{
		"symbols":              "symbols",
		"fixture.period":       "period",
		"fixture.delay":        "delay",
		"fixture.dir":          "output-dir",
		"fixture.dedup_window": "dedup-window",
	})
	return cmd
}

func runFixtures(ctx context.Context, out io.Writer, a *app, f fixturesFlags) error {
	if f.cleanOnly && f.noClean {
		return errors.New("--clean-only and --no-clean are mutually exclusive")
	}
	if err := yahoo.ValidatePeriod(a.cfg.Fixture.Period); err != nil {
		return err
	}
	symbols := source.SplitSymbols(a.cfg.Symbols)
	if len(symbols) == 0 {
		return errors.New("no valid symbols provided")
	}

	store := a.store()
	log := a.log.With().Str("component", "fixtures").Logger()
	log.Info().
		Str("dir", store.Dir).
		Strs("symbols", symbols).
		Str("period", a.cfg.Fixture.Period).
		Dur("delay", a.cfg.Fixture.Delay).
		Msg("Fixture recorder")

	if !f.noClean {
		n, err := store.Clean(symbols)
		if err != nil {
			return fmt.Errorf("clean %s: %w", store.Dir, err)
		}
		log.Info().Int("removed", n).Msg("Cleaned old fixtures")
	}
	if f.cleanOnly {
		return nil
	}

	client := a.upstream()
	rec := &fixture.Recorder{
		Store:    store,
		Upstream: client,
		History:  client,
		Policy:   a.cfg.RetryPolicy(),
		Period:   a.cfg.Fixture.Period,
		Delay:    a.cfg.Fixture.Delay,
		Log:      log,
	}
	run := func(ctx context.Context) error {
		sum, err := rec.Run(ctx, symbols)
		report(out, store, sum)
		return err
	}

	if f.schedule == "" {
		return run(ctx)
	}

	// Scheduled runs only record; cleaning happened once above.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	if _, err := c.AddFunc(f.schedule, func() {
		if err := run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Scheduled recording failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", f.schedule, err)
	}
	c.Start()
	log.Info().Str("schedule", f.schedule).Msg("Recording on schedule")
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func report(out io.Writer, store *fixture.Store, sum fixture.Summary) {
	fmt.Fprintf(out, "Processed %d/%d symbols: %d files written, %d skipped as duplicates\n",
		sum.Succeeded, sum.Symbols, sum.Written, sum.Skipped)
	for _, sym := range slices.Sorted(maps.Keys(sum.Errors)) {
		fmt.Fprintf(out, "  %s: %s\n", sym, sum.Errors[sym])
	}
	entries, err := store.List("", "")
	if err != nil || len(entries) == 0 {
		return
	}
	fmt.Fprintf(out, "Files in %s:\n", store.Dir)
	for _, e := range entries {
		fmt.Fprintf(out, "  - %s\n", filepath.Base(e.Path))
	}
}
