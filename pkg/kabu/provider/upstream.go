package provider

import (
	"context"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

//go:generate mockgen -package=provider_test -destination=mock_upstream_test.go -source=upstream.go

// Upstream returns the raw fundamentals info map for a symbol.
type Upstream interface {
	Info(ctx context.Context, symbol string) (map[string]any, error)
}

// HistorySource returns daily price bars for a symbol over period (e.g. "5d").
type HistorySource interface {
	History(ctx context.Context, symbol, period string) ([]types.PricePoint, error)
}
