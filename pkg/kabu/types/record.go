package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Source values for Record.Source.
const (
	SourceLive    = "live"
	SourceFixture = "fixture"
)

// Record is the upstream fundamentals snapshot for one symbol at one point in time.
// Numeric fields are nil when upstream did not report them.
type Record struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name,omitempty"`

	Price                *float64 `json:"price"`
	TrailingEPS          *float64 `json:"trailing_eps"`
	ForwardEPS           *float64 `json:"forward_eps"`
	BookValuePerShare    *float64 `json:"book_value_per_share"`
	TrailingPE           *float64 `json:"trailing_pe"`
	ForwardPE            *float64 `json:"forward_pe"`
	DividendYieldPercent *float64 `json:"dividend_yield_percent"` // 2.6 means 2.6%
	DividendRate         *float64 `json:"dividend_rate"`
	MarketCap            *float64 `json:"market_cap"`
	SharesOutstanding    *float64 `json:"shares_outstanding"`
	NetIncomeToCommon    *float64 `json:"net_income_to_common"`
	NetIncome            *float64 `json:"net_income"`
	NetIncomeEstimate    *float64 `json:"net_income_estimate"`

	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
	Country  string `json:"country,omitempty"`
	Currency string `json:"currency,omitempty"`

	Source    string         `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
	History   []PricePoint   `json:"history,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// PricePoint is one daily bar of a price history series.
type PricePoint struct {
	Date     time.Time `json:"date"`
	Open     *float64  `json:"open"`
	High     *float64  `json:"high"`
	Low      *float64  `json:"low"`
	Close    *float64  `json:"close"`
	AdjClose *float64  `json:"adj_close,omitempty"`
	Volume   *float64  `json:"volume"`
}

// infoKeys lists the upstream keys consumed into typed Record fields.
var infoKeys = []string{
	"symbol", "currentPrice", "regularMarketPrice", "trailingEps", "forwardEps",
	"bookValue", "trailingPE", "forwardPE", "dividendYield", "dividendRate",
	"marketCap", "sharesOutstanding", "netIncomeToCommon", "netIncome",
	"netIncomeEstimate", "shortName", "longName", "sector", "industry",
	"country", "currency",
}

// RecordFromInfo normalizes a loosely-typed upstream info map into a Record.
// Keys are matched case-insensitively; everything not consumed lands in Extra.
func RecordFromInfo(symbol string, info map[string]any) Record {
	idx := make(map[string]any, len(info))
	for k, v := range info {
		idx[strings.ToLower(k)] = v
	}
	num := func(keys ...string) *float64 {
		for _, k := range keys {
			if f, ok := ToFloat(idx[strings.ToLower(k)]); ok {
				return &f
			}
		}
		return nil
	}
	str := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := idx[strings.ToLower(k)].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}

	rec := Record{
		Symbol:               symbol,
		CompanyName:          str("shortName", "longName"),
		Price:                num("currentPrice", "regularMarketPrice"),
		TrailingEPS:          num("trailingEps"),
		ForwardEPS:           num("forwardEps"),
		BookValuePerShare:    num("bookValue"),
		TrailingPE:           num("trailingPE"),
		ForwardPE:            num("forwardPE"),
		DividendYieldPercent: num("dividendYield"),
		DividendRate:         num("dividendRate"),
		MarketCap:            num("marketCap"),
		SharesOutstanding:    num("sharesOutstanding"),
		NetIncomeToCommon:    num("netIncomeToCommon"),
		NetIncome:            num("netIncome"),
		NetIncomeEstimate:    num("netIncomeEstimate"),
		Sector:               str("sector"),
		Industry:             str("industry"),
		Country:              str("country"),
		Currency:             str("currency"),
	}
	if rec.Symbol == "" {
		rec.Symbol = str("symbol")
	}

	consumed := make(map[string]struct{}, len(infoKeys))
	for _, k := range infoKeys {
		consumed[strings.ToLower(k)] = struct{}{}
	}
	for k, v := range info {
		if _, ok := consumed[strings.ToLower(k)]; ok {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]any)
		}
		rec.Extra[k] = v
	}
	return rec
}

// LastClose returns the most recent non-nil close of the history, if any.
func (r Record) LastClose() *float64 {
	for i := len(r.History) - 1; i >= 0; i-- {
		if c := r.History[i].Close; c != nil {
			v := *c
			return &v
		}
	}
	return nil
}

// ToFloat converts JSON-ish numeric values, including numeric strings, to a
// finite float64.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		x, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Float returns a pointer to v; handy for literals in tests and fixtures.
func Float(v float64) *float64 { return &v }
