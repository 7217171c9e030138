package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/komsit37/kabu/pkg/kabu/provider"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Recorder captures live upstream responses into a Store.
type Recorder struct {
	Store    *Store
	Upstream provider.Upstream
	History  provider.HistorySource
	Policy   provider.RetryPolicy
	Sleep    provider.Sleeper
	Period   string
	Delay    time.Duration // pause between symbols
	Log      zerolog.Logger
}

// Summary tallies one recorder run.
type Summary struct {
	Symbols   int               `json:"symbols"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Written   int               `json:"written"`
	Skipped   int               `json:"skipped"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// Run fetches history and info for each symbol in order and writes them.
// A symbol succeeds when at least one of its files is stored. Only context
// cancellation aborts the run.
func (r *Recorder) Run(ctx context.Context, symbols []string) (Summary, error) {
	sleep := r.Sleep
	if sleep == nil {
		sleep = provider.SleepContext
	}
	sum := Summary{Symbols: len(symbols)}
	for i, sym := range symbols {
		if i > 0 && r.Delay > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				return sum, err
			}
		}
		log := r.Log.With().Str("symbol", sym).Int("n", i+1).Int("of", len(symbols)).Logger()
		stored, errs := r.record(ctx, log, sym, &sum)
		if stored {
			sum.Succeeded++
		} else {
			sum.Failed++
		}
		if len(errs) > 0 {
			if sum.Errors == nil {
				sum.Errors = map[string]string{}
			}
			sum.Errors[sym] = fmt.Sprint(errs)
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (r *Recorder) record(ctx context.Context, log zerolog.Logger, sym string, sum *Summary) (bool, []error) {
	var (
		stored bool
		errs   []error
	)
	tally := func(res WriteResult, err error, kind Kind) {
		if err != nil {
			log.Error().Err(err).Str("kind", string(kind)).Msg("Save failed")
			errs = append(errs, err)
			return
		}
		stored = true
		if res.Written {
			sum.Written++
			log.Info().Str("kind", string(kind)).Str("file", res.Path).Int("bytes", res.Bytes).Msg("Saved")
		} else {
			sum.Skipped++
		}
	}

	if r.History != nil {
		hist, _, err := provider.Retry(ctx, r.Policy, r.Sleep, log, func(ctx context.Context) ([]types.PricePoint, error) {
			return r.History.History(ctx, sym, r.Period)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("history: %w", err))
		} else if len(hist) > 0 {
			rec := types.Record{History: hist}
			if c := rec.LastClose(); c != nil {
				log.Info().Float64("close", *c).Int("points", len(hist)).Msg("Latest price")
			}
			res, err := r.Store.WriteHistory(sym, hist)
			tally(res, err, KindHistory)
		}
	}

	info, _, err := provider.Retry(ctx, r.Policy, r.Sleep, log, func(ctx context.Context) (map[string]any, error) {
		info, err := r.Upstream.Info(ctx, sym)
		if err == nil && len(info) == 0 {
			err = provider.ErrEmptyResponse
		}
		return info, err
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("info: %w", err))
	} else {
		res, err := r.Store.WriteInfo(sym, info)
		tally(res, err, KindInfo)
		if err == nil {
			log.Info().Str("company", types.RecordFromInfo(sym, info).CompanyName).Msg("Info stored")
		}
	}
	return stored, errs
}
