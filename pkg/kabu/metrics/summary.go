package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Summary aggregates a set of rows for footers and API responses.
// Nil statistics mean no row had the value available.
type Summary struct {
	Count                 int      `json:"count"`
	Valid                 int      `json:"valid"`
	Partial               int      `json:"partial"`
	Invalid               int      `json:"invalid"`
	Failed                int      `json:"failed"`
	MeanEarningsYield     *float64 `json:"mean_earnings_yield"`
	MedianEarningsYield   *float64 `json:"median_earnings_yield"`
	MeanBookToPriceRatio  *float64 `json:"mean_book_to_price_ratio"`
	MeanCompletenessScore *float64 `json:"mean_completeness_score"`
}

// Summarize computes collection statistics over available values only.
func Summarize(rows []types.Row) Summary {
	s := Summary{Count: len(rows)}
	var ey, bpr, comp []float64
	for _, r := range rows {
		if !r.Outcome.OK() {
			s.Failed++
		}
		switch r.Metrics.Quality {
		case types.QualityValid:
			s.Valid++
		case types.QualityPartial:
			s.Partial++
		default:
			s.Invalid++
		}
		if v := r.Metrics.CurrentYearEarningsYield; v != nil {
			ey = append(ey, *v)
		}
		if v := r.Metrics.BookToPriceRatio; v != nil {
			bpr = append(bpr, *v)
		}
		comp = append(comp, r.Metrics.CompletenessScore)
	}
	s.MeanEarningsYield = mean(ey)
	s.MedianEarningsYield = median(ey)
	s.MeanBookToPriceRatio = mean(bpr)
	s.MeanCompletenessScore = mean(comp)
	return s
}

func mean(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	return finite(stat.Mean(xs, nil))
}

func median(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return finite(stat.Quantile(0.5, stat.Empirical, sorted, nil))
}
