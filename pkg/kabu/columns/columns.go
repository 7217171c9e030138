// Package columns defines the table columns available for a Sheet.
package columns

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/komsit37/kabu/pkg/kabu/metrics"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Placeholder is shown for unavailable values.
const Placeholder = "-"

// Column describes one column: how to display a row and its raw value.
type Column struct {
	Key     string
	Header  string
	Numeric bool
	// Value returns the raw value for machine-readable output; nil when unavailable.
	Value func(r types.Row) any
	// Format returns the display string; "" is rendered as Placeholder.
	Format func(r types.Row) string
}

// Registry maps column keys to columns.
var Registry = map[string]Column{}

func register(c Column) {
	if c.Header == "" {
		c.Header = c.Key
	}
	Registry[c.Key] = c
}

func text(key, header string, get func(types.Row) string) {
	register(Column{
		Key:    key,
		Header: header,
		Value: func(r types.Row) any {
			if s := get(r); s != "" {
				return s
			}
			return nil
		},
		Format: get,
	})
}

func number(key, header string, get func(types.Row) *float64, format func(float64) string) {
	register(Column{
		Key:     key,
		Header:  header,
		Numeric: true,
		Value: func(r types.Row) any {
			if v := get(r); v != nil {
				return *v
			}
			return nil
		},
		Format: func(r types.Row) string {
			if v := get(r); v != nil {
				return format(*v)
			}
			return ""
		},
	})
}

func rec(get func(types.Record) *float64) func(types.Row) *float64 {
	return func(r types.Row) *float64 { return get(r.Record()) }
}

// magnitude is rec for raw monetary and count fields; values beyond
// metrics.MaxMagnitude are treated as unavailable.
func magnitude(get func(types.Record) *float64) func(types.Row) *float64 {
	return func(r types.Row) *float64 {
		if v := get(r.Record()); v != nil && math.Abs(*v) <= metrics.MaxMagnitude {
			return v
		}
		return nil
	}
}

func init() {
	text("sym", "sym", func(r types.Row) string { return r.Item.Sym })
	text("name", "name", func(r types.Row) string {
		if r.Item.Name != "" {
			return r.Item.Name
		}
		return r.Record().CompanyName
	})
	text("sector", "sector", func(r types.Row) string { return r.Record().Sector })
	text("industry", "industry", func(r types.Row) string { return r.Record().Industry })
	text("country", "country", func(r types.Row) string { return r.Record().Country })
	text("currency", "ccy", func(r types.Row) string { return r.Record().Currency })
	text("source", "source", func(r types.Row) string { return r.Record().Source })
	text("quality", "quality", func(r types.Row) string { return string(r.Metrics.Quality) })
	text("status", "status", func(r types.Row) string {
		if r.Outcome.Failure != nil {
			return string(r.Outcome.Failure.Reason)
		}
		return "ok"
	})
	text("error", "error", func(r types.Row) string {
		if r.Outcome.Failure != nil {
			return r.Outcome.Failure.Detail
		}
		return ""
	})
	register(Column{
		Key:    "fetched_at",
		Header: "fetched",
		Value: func(r types.Row) any {
			if t := r.Record().FetchedAt; !t.IsZero() {
				return t.Format(time.RFC3339)
			}
			return nil
		},
		Format: func(r types.Row) string {
			if t := r.Record().FetchedAt; !t.IsZero() {
				return humanize.Time(t)
			}
			return ""
		},
	})

	number("price", "price", rec(func(x types.Record) *float64 { return x.Price }), Decimal)
	number("eps", "eps", rec(func(x types.Record) *float64 { return x.TrailingEPS }), Decimal)
	number("fwd_eps", "fwd eps", rec(func(x types.Record) *float64 { return x.ForwardEPS }), Decimal)
	number("bps", "bps", rec(func(x types.Record) *float64 { return x.BookValuePerShare }), Decimal)
	number("pe", "per", rec(func(x types.Record) *float64 { return x.TrailingPE }), Decimal)
	number("fwd_pe", "fwd per", rec(func(x types.Record) *float64 { return x.ForwardPE }), Decimal)
	number("div_yield", "div yld", rec(func(x types.Record) *float64 { return x.DividendYieldPercent }), Percent)
	number("mcap", "mkt cap", magnitude(func(x types.Record) *float64 { return x.MarketCap }), Whole)
	number("shares", "shares", magnitude(func(x types.Record) *float64 { return x.SharesOutstanding }), Whole)

	number("chg%", "chg%", func(r types.Row) *float64 { return r.Metrics.DayChangePercent }, SignedPercent)
	number("ey", "ey", func(r types.Row) *float64 { return r.Metrics.CurrentYearEarningsYield }, Percent)
	number("ey_next", "ey next", func(r types.Row) *float64 { return r.Metrics.NextYearEarningsYieldByPER }, Percent)
	number("ey_mcap", "ey mcap", func(r types.Row) *float64 { return r.Metrics.NextYearEarningsYieldByMarketCap }, Percent)
	number("bpr", "bpr", func(r types.Row) *float64 { return r.Metrics.BookToPriceRatio }, Percent)
	number("div", "div", func(r types.Row) *float64 { return r.Metrics.AnnualDividend }, Decimal)
	number("net_income", "net income", func(r types.Row) *float64 { return r.Metrics.ActualNetIncome }, Whole)
	number("net_income_est", "net income est", func(r types.Row) *float64 { return r.Metrics.PredictedNetIncome }, Whole)
	number("completeness", "complete", func(r types.Row) *float64 {
		v := r.Metrics.CompletenessScore * 100
		return &v
	}, func(v float64) string { return humanize.FormatFloat("#.", v) + "%" })
}

// Decimal formats with thousands separators and two decimals.
func Decimal(v float64) string { return humanize.FormatFloat("#,###.##", v) }

// Percent formats a percentage value (2.6 means 2.6%).
func Percent(v float64) string { return Decimal(v) + "%" }

// SignedPercent is Percent with an explicit plus sign.
func SignedPercent(v float64) string {
	if v > 0 {
		return "+" + Percent(v)
	}
	return Percent(v)
}

// Whole formats a rounded integer with thousands separators. Values outside
// ±metrics.MaxMagnitude format as "" so they display as Placeholder.
func Whole(v float64) string {
	if math.IsNaN(v) || math.Abs(v) > metrics.MaxMagnitude {
		return ""
	}
	return humanize.Comma(int64(math.Round(v)))
}

// Lookup returns the column for key. Keys not in the registry fall back to
// the watchlist item's own field of that name.
func Lookup(key string) Column {
	if c, ok := Registry[key]; ok {
		return c
	}
	return Column{
		Key:    key,
		Header: key,
		Value:  func(r types.Row) any { return r.Item.Fields[key] },
		Format: func(r types.Row) string {
			if v, ok := r.Item.Fields[key]; ok && v != nil {
				return fmt.Sprint(v)
			}
			return ""
		},
	}
}

// Display formats row r for column key, substituting Placeholder when empty.
func Display(key string, r types.Row) string {
	if s := Lookup(key).Format(r); s != "" {
		return s
	}
	return Placeholder
}

// Compute determines the final column order. Explicit columns are honored
// as given (deduplicated); otherwise the default set is used followed by
// any extra watchlist fields in sorted order.
func Compute(explicit []string, items []types.Item) []string {
	if len(explicit) > 0 {
		return dedupe(explicit)
	}
	keys := append([]string(nil), Sets["default"]...)
	extra := map[string]struct{}{}
	for _, it := range items {
		for k := range it.Fields {
			if _, known := Registry[k]; !known {
				extra[k] = struct{}{}
			}
		}
	}
	rest := make([]string, 0, len(extra))
	for k := range extra {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Validate reports the first column that is neither registered nor a field
// of any item.
func Validate(cols []string, items []types.Item) error {
	for _, c := range cols {
		if _, ok := Registry[c]; ok {
			continue
		}
		found := false
		for _, it := range items {
			if _, ok := it.Fields[c]; ok {
				found = true
				break
			}
		}
		if !found {
			return &UnknownColumnError{Name: c, Available: Keys()}
		}
	}
	return nil
}

// Keys returns the registered column keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(Registry))
	for k := range Registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnknownColumnError reports a column that cannot be resolved.
type UnknownColumnError struct {
	Name      string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return "unknown column: " + e.Name + "; available: " + strings.Join(e.Available, ", ")
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
