// Package provider fetches fundamentals records for symbols.
//
// Two implementations exist: Live talks to the upstream API with retry, and
// Fixture replays records captured on disk. Cached decorates any Provider
// with a session-scoped TTL cache.
package provider

import (
	"context"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Names accepted by the provider toggle.
const (
	NameLive    = "live"
	NameFixture = "fixture"
)

// Provider fetches one symbol. Fetch never panics and never returns a
// half-populated success; failures are reported in the Outcome.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) types.Outcome
}

// RecordStore is the read side of a fixture store.
type RecordStore interface {
	Latest(ctx context.Context, symbol string) (types.Record, error)
}
