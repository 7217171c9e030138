// Package metrics derives valuation ratios from a fundamentals record.
package metrics

import (
	"math"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// MaxMagnitude is the largest absolute monetary value accepted as real data.
// Anything above it is treated as an upstream data error.
const MaxMagnitude = 1e15

// rule is one step of a fallback chain: when reports whether the inputs it
// needs are present, compute produces the value.
type rule struct {
	name    string
	when    func(r types.Record) bool
	compute func(r types.Record) float64
}

// chain evaluates rules in order; the first matching rule wins.
type chain []rule

func (c chain) eval(r types.Record) *float64 {
	for _, ru := range c {
		if !ru.when(r) {
			continue
		}
		return finite(ru.compute(r))
	}
	return nil
}

// pick returns the name of the first matching rule.
func (c chain) pick(r types.Record) string {
	for _, ru := range c {
		if ru.when(r) {
			return ru.name
		}
	}
	return ""
}

func has(v *float64) bool { return v != nil }

func positive(v *float64) bool { return v != nil && *v > 0 && !math.IsInf(*v, 1) }

func nonZero(v *float64) bool { return v != nil && *v != 0 }

func bounded(v *float64) bool { return v != nil && math.Abs(*v) <= MaxMagnitude }

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func boundedPtr(v *float64) *float64 {
	if !bounded(v) {
		return nil
	}
	return v
}

func yieldChain(pe func(types.Record) *float64, eps func(types.Record) *float64) chain {
	return chain{
		{
			name:    "per",
			when:    func(r types.Record) bool { return nonZero(pe(r)) },
			compute: func(r types.Record) float64 { return 100 / *pe(r) },
		},
		{
			name:    "eps_over_price",
			when:    func(r types.Record) bool { return has(eps(r)) && positive(r.Price) },
			compute: func(r types.Record) float64 { return *eps(r) / *r.Price * 100 },
		},
	}
}

var (
	currentYield = yieldChain(
		func(r types.Record) *float64 { return r.TrailingPE },
		func(r types.Record) *float64 { return r.TrailingEPS },
	)
	nextYieldPER = yieldChain(
		func(r types.Record) *float64 { return r.ForwardPE },
		func(r types.Record) *float64 { return r.ForwardEPS },
	)

	predictedIncome = chain{
		{
			name:    "estimate",
			when:    func(r types.Record) bool { return has(r.NetIncomeEstimate) },
			compute: func(r types.Record) float64 { return *r.NetIncomeEstimate },
		},
		{
			name:    "forward_eps_x_shares",
			when:    func(r types.Record) bool { return has(r.ForwardEPS) && has(r.SharesOutstanding) },
			compute: func(r types.Record) float64 { return *r.ForwardEPS * *r.SharesOutstanding },
		},
	}

	// EPS x shares is never used here: a split between the two reporting
	// dates yields a wrong magnitude.
	actualIncome = chain{
		{
			name:    "net_income_to_common",
			when:    func(r types.Record) bool { return has(r.NetIncomeToCommon) },
			compute: func(r types.Record) float64 { return *r.NetIncomeToCommon },
		},
		{
			name:    "net_income",
			when:    func(r types.Record) bool { return has(r.NetIncome) },
			compute: func(r types.Record) float64 { return *r.NetIncome },
		},
	}

	bookToPrice = chain{
		{
			name:    "bps_over_price",
			when:    func(r types.Record) bool { return has(r.BookValuePerShare) && positive(r.Price) },
			compute: func(r types.Record) float64 { return *r.BookValuePerShare / *r.Price * 100 },
		},
	}

	// dividendYield arrives in percent units already (2.6 means 2.6%).
	annualDividend = chain{
		{
			name:    "dividend_rate",
			when:    func(r types.Record) bool { return has(r.DividendRate) },
			compute: func(r types.Record) float64 { return *r.DividendRate },
		},
		{
			name:    "yield_x_price",
			when:    func(r types.Record) bool { return has(r.DividendYieldPercent) && has(r.Price) },
			compute: func(r types.Record) float64 { return *r.DividendYieldPercent / 100 * *r.Price },
		},
	}
)

// Calculate derives Metrics from rec. It is total and deterministic.
func Calculate(rec types.Record) types.Metrics {
	var m types.Metrics

	m.CurrentYearEarningsYield = currentYield.eval(rec)
	m.NextYearEarningsYieldByPER = nextYieldPER.eval(rec)
	m.BookToPriceRatio = bookToPrice.eval(rec)
	m.AnnualDividend = boundedPtr(annualDividend.eval(rec))
	m.ActualNetIncome = boundedPtr(actualIncome.eval(rec))
	m.PredictedNetIncome = boundedPtr(predictedIncome.eval(rec))
	m.NextYearEarningsYieldByMarketCap = marketCapYield(rec)
	m.DayChangePercent = DayChange(rec.History)

	m.CompletenessScore = completeness(m)
	m.Quality = quality(rec, m)
	return m
}

// marketCapYield is predicted net income over market cap, both within bounds.
func marketCapYield(rec types.Record) *float64 {
	predicted := boundedPtr(predictedIncome.eval(rec))
	if predicted == nil || !positive(rec.MarketCap) || !bounded(rec.MarketCap) {
		return nil
	}
	return finite(*predicted / *rec.MarketCap * 100)
}

// DayChange is the percent change between the last two closes of history.
func DayChange(history []types.PricePoint) *float64 {
	var closes []float64
	for i := len(history) - 1; i >= 0 && len(closes) < 2; i-- {
		if c := history[i].Close; c != nil {
			closes = append(closes, *c)
		}
	}
	if len(closes) < 2 || closes[1] == 0 {
		return nil
	}
	return finite((closes[0] - closes[1]) / closes[1] * 100)
}

func ratioFields(m types.Metrics) []*float64 {
	return []*float64{
		m.CurrentYearEarningsYield,
		m.NextYearEarningsYieldByPER,
		m.NextYearEarningsYieldByMarketCap,
		m.BookToPriceRatio,
		m.AnnualDividend,
	}
}

func completeness(m types.Metrics) float64 {
	fields := ratioFields(m)
	n := 0
	for _, f := range fields {
		if f != nil {
			n++
		}
	}
	return float64(n) / float64(len(fields))
}

func quality(rec types.Record, m types.Metrics) types.Quality {
	switch {
	case !positive(rec.Price):
		return types.QualityInvalid
	case m.CompletenessScore < 1:
		return types.QualityPartial
	default:
		return types.QualityValid
	}
}

// Explain reports which rule produced each metric, keyed by metric name.
// Metrics with no applicable rule are omitted.
func Explain(rec types.Record) map[string]string {
	out := map[string]string{}
	add := func(key string, c chain) {
		if n := c.pick(rec); n != "" {
			out[key] = n
		}
	}
	add("current_year_earnings_yield", currentYield)
	add("next_year_earnings_yield_by_per", nextYieldPER)
	add("predicted_net_income", predictedIncome)
	add("actual_net_income", actualIncome)
	add("book_to_price_ratio", bookToPrice)
	add("annual_dividend", annualDividend)
	return out
}
