package fixture

import (
	"fmt"
	"sort"
	"time"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// infoDoc is the on-disk layout of an info fixture.
type infoDoc struct {
	Symbol    string         `json:"symbol"`
	Info      map[string]any `json:"info"`
	Timestamp string         `json:"timestamp"`
}

// historyDoc is the on-disk layout of a history fixture. History maps a
// column name to ISO-8601 date to value.
type historyDoc struct {
	Symbol     string                         `json:"symbol"`
	History    map[string]map[string]*float64 `json:"history"`
	Timestamp  string                         `json:"timestamp"`
	DataPoints int                            `json:"data_points"`
	DateRange  dateRange                      `json:"date_range"`
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// History column names.
const (
	colOpen     = "Open"
	colHigh     = "High"
	colLow      = "Low"
	colClose    = "Close"
	colAdjClose = "Adj Close"
	colVolume   = "Volume"
)

func newHistoryDoc(symbol string, points []types.PricePoint, at time.Time) historyDoc {
	doc := historyDoc{
		Symbol:     symbol,
		History:    map[string]map[string]*float64{},
		Timestamp:  at.Format(time.RFC3339),
		DataPoints: len(points),
	}
	cols := map[string]func(types.PricePoint) *float64{
		colOpen:   func(p types.PricePoint) *float64 { return p.Open },
		colHigh:   func(p types.PricePoint) *float64 { return p.High },
		colLow:    func(p types.PricePoint) *float64 { return p.Low },
		colClose:  func(p types.PricePoint) *float64 { return p.Close },
		colVolume: func(p types.PricePoint) *float64 { return p.Volume },
	}
	for name, get := range cols {
		series := make(map[string]*float64, len(points))
		for _, p := range points {
			series[p.Date.Format(time.RFC3339)] = get(p)
		}
		doc.History[name] = series
	}
	var adj map[string]*float64
	for _, p := range points {
		if p.AdjClose == nil {
			continue
		}
		if adj == nil {
			adj = make(map[string]*float64, len(points))
		}
		adj[p.Date.Format(time.RFC3339)] = p.AdjClose
	}
	if adj != nil {
		doc.History[colAdjClose] = adj
	}
	if len(points) > 0 {
		doc.DateRange = dateRange{
			Start: points[0].Date.Format(time.RFC3339),
			End:   points[len(points)-1].Date.Format(time.RFC3339),
		}
	}
	return doc
}

// points converts the column-major history back into date-ordered bars.
func (d historyDoc) points() ([]types.PricePoint, error) {
	byDate := map[string]*types.PricePoint{}
	for col, series := range d.History {
		for ds, v := range series {
			p, ok := byDate[ds]
			if !ok {
				at, err := parseTime(ds)
				if err != nil {
					return nil, fmt.Errorf("history %s: %w", d.Symbol, err)
				}
				p = &types.PricePoint{Date: at}
				byDate[ds] = p
			}
			switch col {
			case colOpen:
				p.Open = v
			case colHigh:
				p.High = v
			case colLow:
				p.Low = v
			case colClose:
				p.Close = v
			case colAdjClose:
				p.AdjClose = v
			case colVolume:
				p.Volume = v
			}
		}
	}
	out := make([]types.PricePoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"}

// parseTime accepts ISO-8601 with or without zone, or a bare date.
func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 time: %q", s)
}
