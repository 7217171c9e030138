package types

// Watchlist represents a named list of symbols with optional explicit column order.
type Watchlist struct {
	Name    string
	Columns []string
	Items   []Item
}

// Item represents a symbol entry and arbitrary fields from the watchlist file.
type Item struct {
	Sym    string
	Name   string
	Fields map[string]any
}

// Symbols returns the non-empty symbols of the list in order.
func (w Watchlist) Symbols() []string {
	out := make([]string, 0, len(w.Items))
	for _, it := range w.Items {
		if it.Sym != "" {
			out = append(out, it.Sym)
		}
	}
	return out
}

// Row is one evaluated symbol: the fetch outcome and the metrics derived from it.
type Row struct {
	Item    Item
	Outcome Outcome
	Metrics Metrics
}

// Record returns the fetched record, or an empty record for the symbol on failure.
func (r Row) Record() Record {
	if r.Outcome.Record != nil {
		return *r.Outcome.Record
	}
	return Record{Symbol: r.Item.Sym}
}

// Sheet is a watchlist after evaluation, ready for rendering.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row
}
