package provider

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Fixture replays the newest recorded record for a symbol. No retry, no TTL.
type Fixture struct {
	Store RecordStore
	Log   zerolog.Logger
}

// NewFixture returns a Fixture provider reading from store.
func NewFixture(store RecordStore, log zerolog.Logger) *Fixture {
	return &Fixture{Store: store, Log: log.With().Str("component", "fixture").Logger()}
}

func (f *Fixture) Name() string { return NameFixture }

func (f *Fixture) Fetch(ctx context.Context, symbol string) types.Outcome {
	rec, err := f.Store.Latest(ctx, symbol)
	if err != nil {
		if !errors.Is(err, types.ErrFixtureNotFound) {
			f.Log.Warn().Err(err).Str("symbol", symbol).Msg("Unreadable fixture")
		}
		return types.Fail(symbol, types.ReasonFixtureNotFound, err.Error(), 0)
	}
	rec.Source = types.SourceFixture
	if rec.Symbol == "" {
		rec.Symbol = symbol
	}
	return types.Success(rec)
}
