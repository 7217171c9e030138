package types

// Quality flags how usable a metrics row is.
type Quality string

const (
	QualityValid   Quality = "valid"
	QualityPartial Quality = "partial"
	QualityInvalid Quality = "invalid"
)

// Metrics holds the ratios derived from one Record. Nil means unavailable.
type Metrics struct {
	CurrentYearEarningsYield         *float64 `json:"current_year_earnings_yield"`
	NextYearEarningsYieldByPER       *float64 `json:"next_year_earnings_yield_by_per"`
	NextYearEarningsYieldByMarketCap *float64 `json:"next_year_earnings_yield_by_market_cap"`
	BookToPriceRatio                 *float64 `json:"book_to_price_ratio"`
	AnnualDividend                   *float64 `json:"annual_dividend"`

	ActualNetIncome    *float64 `json:"actual_net_income"`
	PredictedNetIncome *float64 `json:"predicted_net_income"`
	DayChangePercent   *float64 `json:"day_change_percent"`

	CompletenessScore float64 `json:"completeness_score"`
	Quality           Quality `json:"data_quality"`
}
