// Package source loads symbol watchlists.
package source

import (
	"context"
	"strings"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Source loads one or more watchlists.
type Source interface {
	Load(ctx context.Context) ([]types.Watchlist, error)
}

// InlineSource is a single watchlist given as a comma-separated symbol string.
type InlineSource struct {
	Name    string
	Symbols string
}

func (s InlineSource) Load(context.Context) ([]types.Watchlist, error) {
	name := s.Name
	if name == "" {
		name = "symbols"
	}
	return []types.Watchlist{ListFromSymbols(name, SplitSymbols(s.Symbols))}, nil
}

// SplitSymbols splits a comma or whitespace separated list, dropping blanks.
// Symbols are otherwise left untouched.
func SplitSymbols(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ListFromSymbols builds a watchlist whose items carry only symbols.
func ListFromSymbols(name string, symbols []string) types.Watchlist {
	wl := types.Watchlist{Name: name, Items: make([]types.Item, 0, len(symbols))}
	for _, s := range symbols {
		wl.Items = append(wl.Items, types.Item{Sym: s, Fields: map[string]any{"sym": s}})
	}
	return wl
}
