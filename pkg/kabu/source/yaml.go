package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// YAMLSource loads watchlists from a YAML file or a directory tree of them.
//
//	columns: [sym, name, price, ey]
//	watchlist:
//	  - sym: 8194.T
//	    name: Life
//	  - name: US
//	    watchlist:
//	      - sym: AAPL
type YAMLSource struct {
	Path string
}

func (s YAMLSource) Load(ctx context.Context) ([]types.Watchlist, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		lists, err := loadFile(s.Path)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
		return prefixNames(lists, base, false), nil
	}

	var files []string
	err = filepath.WalkDir(s.Path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".yaml", ".yml":
			if !d.IsDir() {
				files = append(files, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []types.Watchlist
	for _, full := range files {
		lists, err := loadFile(full)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(s.Path, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		all = append(all, prefixNames(lists, prefix, true)...)
	}
	return all, nil
}

func loadFile(path string) ([]types.Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lists, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lists, nil
}

// prefixNames names unnamed lists after prefix; with nest set, named lists
// are also nested under it.
func prefixNames(lists []types.Watchlist, prefix string, nest bool) []types.Watchlist {
	for i := range lists {
		switch {
		case strings.TrimSpace(lists[i].Name) == "":
			lists[i].Name = prefix
		case nest && prefix != "":
			lists[i].Name = prefix + "/" + lists[i].Name
		}
	}
	return lists
}

// document is the top level of a watchlist file.
type document struct {
	Columns   []string `yaml:"columns"`
	Watchlist any      `yaml:"watchlist"`
}

func parseYAML(data []byte) ([]types.Watchlist, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Watchlist == nil {
		return nil, fmt.Errorf("invalid yaml: missing 'watchlist'")
	}

	p := parser{columns: doc.Columns}
	p.walk(normalize(doc.Watchlist), nil)
	return p.lists, nil
}

type parser struct {
	columns []string
	lists   []types.Watchlist
}

// walk emits one watchlist per node that directly holds symbol entries and
// descends into named groups.
func (p *parser) walk(node any, path []string) {
	switch n := node.(type) {
	case []any:
		var items []types.Item
		for _, e := range n {
			if m, ok := e.(map[string]any); ok && isEntry(m) {
				items = append(items, toItem(m))
			}
		}
		if len(items) > 0 {
			p.emit(path, items)
		}
		for _, e := range n {
			if m, ok := e.(map[string]any); ok && !isEntry(m) {
				p.group(m, path)
			}
		}
	case map[string]any:
		if isEntry(n) {
			p.emit(path, []types.Item{toItem(n)})
			return
		}
		p.group(n, path)
	}
}

func (p *parser) group(m map[string]any, path []string) {
	child, ok := m["watchlist"]
	if !ok {
		return
	}
	next := append([]string(nil), path...)
	if name, ok := m["name"].(string); ok && name != "" {
		next = append(next, name)
	}
	p.walk(child, next)
}

func (p *parser) emit(path []string, items []types.Item) {
	p.lists = append(p.lists, types.Watchlist{
		Name:    strings.Join(path, "/"),
		Columns: append([]string(nil), p.columns...),
		Items:   items,
	})
}

// normalize turns yaml maps with non-string keys into map[string]any.
func normalize(v any) any {
	switch m := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]any:
		for k, val := range m {
			m[k] = normalize(val)
		}
		return m
	case []any:
		for i, e := range m {
			m[i] = normalize(e)
		}
		return m
	default:
		return v
	}
}

func isEntry(m map[string]any) bool {
	_, group := m["watchlist"]
	return !group && len(m) > 0
}

func toItem(m map[string]any) types.Item {
	it := types.Item{Fields: make(map[string]any, len(m))}
	for k, v := range m {
		if v == nil {
			continue
		}
		switch k {
		case "sym":
			it.Sym = fmt.Sprint(v)
			it.Fields[k] = it.Sym
		case "name":
			it.Name = fmt.Sprint(v)
			it.Fields[k] = it.Name
		default:
			it.Fields[k] = v
		}
	}
	return it
}
