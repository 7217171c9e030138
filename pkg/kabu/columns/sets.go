package columns

import (
	"sort"
	"strings"
)

// Sets defines named column groups that expand into lists of columns.
var Sets = map[string][]string{
	"default":   {"sym", "name", "price", "chg%", "eps", "bps", "ey", "ey_next", "ey_mcap", "bpr", "div", "quality"},
	"valuation": {"price", "pe", "fwd_pe", "eps", "fwd_eps", "bps", "ey", "ey_next", "ey_mcap", "bpr", "div_yield", "div"},
	"profile":   {"name", "sector", "industry", "country", "currency", "mcap", "shares", "net_income", "net_income_est"},
	"quality":   {"completeness", "quality", "source", "status", "fetched_at"},
}

// ExpandSets returns the union of columns for the given set names in order,
// keeping the first occurrence of each column.
func ExpandSets(setNames []string) ([]string, error) {
	var out []string
	for _, name := range setNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cols, ok := Sets[name]
		if !ok {
			return nil, &UnknownSetError{Name: name, Available: availableSets()}
		}
		out = append(out, cols...)
	}
	return dedupe(out), nil
}

// UnknownSetError reports an unknown column set name.
type UnknownSetError struct {
	Name      string
	Available []string
}

func (e *UnknownSetError) Error() string {
	return "unknown column set: " + e.Name + "; available: " + strings.Join(e.Available, ", ")
}

func availableSets() []string {
	keys := make([]string, 0, len(Sets))
	for k := range Sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
