// Package yahoo is the Yahoo Finance upstream: fundamentals info and daily
// price history.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	yfgo "github.com/komsit37/yf-go"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 15 * time.Second

// Client implements provider.Upstream and provider.HistorySource.
type Client struct {
	log     zerolog.Logger
	timeout time.Duration

	// Hooks over the underlying libraries; tests replace them.
	infoFn    func(symbol string) (map[string]any, error)
	historyFn func(symbol, period string) ([]models.Bar, error)
	priceFn   func(ctx context.Context, symbol string) (map[string]any, error)
}

// NewClient returns a client using go-yfinance with a yf-go price fallback.
func NewClient(log zerolog.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	yf := yfgo.NewClient()
	c := &Client{
		log:     log.With().Str("client", "yahoo").Logger(),
		timeout: timeout,
	}
	c.infoFn = tickerInfo
	c.historyFn = tickerHistory
	c.priceFn = func(ctx context.Context, symbol string) (map[string]any, error) {
		return quoteSummaryPrice(ctx, yf, symbol)
	}
	return c
}

// Info returns the fundamentals map for symbol. Zero numbers and empty
// strings are dropped since the library reports missing data that way.
func (c *Client) Info(ctx context.Context, symbol string) (map[string]any, error) {
	info, err := call(ctx, c.timeout, func() (map[string]any, error) { return c.infoFn(symbol) })
	if err != nil {
		return nil, fmt.Errorf("info %s: %w", symbol, err)
	}
	info = percentYield(prune(info))

	if !hasPrice(info) && c.priceFn != nil {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		price, err := c.priceFn(cctx, symbol)
		if err != nil {
			c.log.Debug().Err(err).Str("symbol", symbol).Msg("Price fallback failed")
		}
		for k, v := range prune(price) {
			if _, ok := info[k]; !ok {
				info[k] = v
			}
		}
	}
	return info, nil
}

// History returns daily bars for symbol over period.
func (c *Client) History(ctx context.Context, symbol, period string) ([]types.PricePoint, error) {
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}
	bars, err := call(ctx, c.timeout, func() ([]models.Bar, error) { return c.historyFn(symbol, period) })
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	out := make([]types.PricePoint, 0, len(bars))
	for _, bar := range bars {
		out = append(out, types.PricePoint{
			Date:     bar.Date,
			Open:     positive(float64(bar.Open)),
			High:     positive(float64(bar.High)),
			Low:      positive(float64(bar.Low)),
			Close:    positive(float64(bar.Close)),
			AdjClose: positive(float64(bar.AdjClose)),
			Volume:   types.Float(float64(bar.Volume)),
		})
	}
	return out, nil
}

func tickerInfo(symbol string) (map[string]any, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get info: %w", err)
	}
	if info == nil {
		return nil, nil
	}
	return toMap(info)
}

func tickerHistory(symbol, period string) ([]models.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	bars, err := t.History(models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}
	return bars, nil
}

// quoteSummaryPrice reads price and name from the quoteSummary price module.
func quoteSummaryPrice(ctx context.Context, client *yfgo.Client, symbol string) (map[string]any, error) {
	res, err := client.QuoteSummaryTyped(ctx, symbol, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
	if err != nil {
		return nil, err
	}
	if res.Price == nil {
		return nil, fmt.Errorf("no price for %s", symbol)
	}
	out := map[string]any{}
	if p := res.Price.RegularMarketPrice.Raw; p != nil {
		out["regularMarketPrice"] = *p
	}
	if res.Price.ShortName != "" {
		out["shortName"] = res.Price.ShortName
	}
	if res.Price.LongName != "" {
		out["longName"] = res.Price.LongName
	}
	return out, nil
}

// toMap flattens a library struct into a generic field map.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// prune drops nil values, zero numbers and blank strings.
func prune(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t == "" {
				continue
			}
		case bool:
		default:
			if f, ok := types.ToFloat(v); ok && f == 0 {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// percentYield rescales dividendYield from the fraction go-yfinance reports
// (0.026) to the percent units records carry (2.6).
func percentYield(info map[string]any) map[string]any {
	for k, v := range info {
		if !strings.EqualFold(k, "dividendYield") {
			continue
		}
		if f, ok := types.ToFloat(v); ok {
			info[k] = f * 100
		}
	}
	return info
}

func hasPrice(info map[string]any) bool {
	rec := types.RecordFromInfo("", info)
	return rec.Price != nil
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return types.Float(v)
}

// call runs fn, returning early if ctx ends first. The underlying library
// has no context support, so a cancelled call finishes in the background.
func call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("upstream panic: %v", r)}
			}
		}()
		v, err := fn()
		ch <- result{v: v, err: err}
	}()
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
