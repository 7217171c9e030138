// Package filter selects watchlists by name.
package filter

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Filter matches a watchlist name.
type Filter interface {
	Match(name string) bool
}

// Parse builds a filter from an expression:
//   - "" matches everything
//   - "/^US/" is a regular expression
//   - "Core,International" is a set of exact names
//   - "Tech*" is a glob
//   - anything else is a case-insensitive substring
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return All{}, nil
	case len(expr) > 2 && strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/"):
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	case strings.Contains(expr, ","):
		set := Names{}
		for _, p := range strings.Split(expr, ",") {
			if p = strings.TrimSpace(p); p != "" {
				set[p] = struct{}{}
			}
		}
		return set, nil
	case strings.ContainsAny(expr, "*?["):
		if _, err := path.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Glob(expr), nil
	default:
		return Substr(strings.ToLower(expr)), nil
	}
}

// Apply keeps the lists whose names match f. A nil filter keeps everything.
func Apply(lists []types.Watchlist, f Filter) []types.Watchlist {
	if f == nil {
		return lists
	}
	out := make([]types.Watchlist, 0, len(lists))
	for _, l := range lists {
		if f.Match(l.Name) {
			out = append(out, l)
		}
	}
	return out
}

// All matches every name.
type All struct{}

func (All) Match(string) bool { return true }
func (All) String() string    { return "all" }

// Names matches any of a set of exact names.
type Names map[string]struct{}

func (n Names) Match(name string) bool {
	_, ok := n[name]
	return ok
}

func (n Names) String() string { return fmt.Sprintf("names:%d", len(n)) }

// Glob matches shell patterns; "*" does not cross "/".
type Glob string

func (g Glob) Match(name string) bool {
	ok, _ := path.Match(string(g), name)
	return ok
}

func (g Glob) String() string { return "glob:" + string(g) }

// Regex matches a regular expression anywhere in the name.
type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(name string) bool { return r.re.MatchString(name) }
func (r Regex) String() string         { return "regex:" + r.re.String() }

// Substr is a lower-cased needle matched case-insensitively.
type Substr string

func (s Substr) Match(name string) bool {
	return strings.Contains(strings.ToLower(name), string(s))
}

func (s Substr) String() string { return "substr:" + string(s) }
