package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// ErrEmptyResponse is returned when upstream answers without any fields.
var ErrEmptyResponse = errors.New("empty upstream response")

// Live fetches records from the upstream API under a retry policy.
// Symbols are passed through unmodified.
type Live struct {
	Upstream Upstream
	Policy   RetryPolicy
	Sleep    Sleeper
	Log      zerolog.Logger

	// History is optional. When set, HistoryPeriod bars are attached to the
	// record; a history failure is logged and does not fail the fetch.
	History       HistorySource
	HistoryPeriod string

	Now func() time.Time
}

// NewLive returns a Live provider over up with the default retry policy.
func NewLive(up Upstream, log zerolog.Logger) *Live {
	return &Live{
		Upstream: up,
		Policy:   DefaultRetryPolicy(),
		Log:      log.With().Str("component", "live").Logger(),
	}
}

func (l *Live) Name() string { return NameLive }

func (l *Live) Fetch(ctx context.Context, symbol string) types.Outcome {
	log := l.Log.With().Str("symbol", symbol).Logger()

	info, attempts, err := Retry(ctx, l.Policy, l.Sleep, log, func(ctx context.Context) (map[string]any, error) {
		return l.info(ctx, symbol)
	})
	if err != nil {
		return types.Fail(symbol, types.ReasonUpstreamUnavailable, err.Error(), attempts)
	}

	rec := types.RecordFromInfo(symbol, info)
	rec.Source = types.SourceLive
	rec.FetchedAt = l.now()

	if l.History != nil && l.HistoryPeriod != "" {
		hist, err := l.history(ctx, symbol)
		if err != nil {
			log.Debug().Err(err).Str("period", l.HistoryPeriod).Msg("History unavailable")
		} else {
			rec.History = hist
		}
	}

	log.Debug().Int("attempts", attempts).Msg("Fetched")
	return types.Success(rec)
}

// info calls upstream once, converting panics and empty maps into errors.
func (l *Live) info(ctx context.Context, symbol string) (info map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("upstream panic: %v", r)
		}
	}()
	info, err = l.Upstream.Info(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(info) == 0 {
		return nil, ErrEmptyResponse
	}
	return info, nil
}

func (l *Live) history(ctx context.Context, symbol string) (hist []types.PricePoint, err error) {
	defer func() {
		if r := recover(); r != nil {
			hist, err = nil, fmt.Errorf("upstream panic: %v", r)
		}
	}()
	return l.History.History(ctx, symbol, l.HistoryPeriod)
}

func (l *Live) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now().UTC()
}
