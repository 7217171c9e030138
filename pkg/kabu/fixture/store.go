// Package fixture records upstream responses to disk and replays them.
package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// DefaultDedupWindow is how close two captures of the same symbol and kind
// may be before the second is skipped.
const DefaultDedupWindow = 60 * time.Second

// Store is a directory of fixture files.
type Store struct {
	Dir         string
	DedupWindow time.Duration
	Now         func() time.Time
	Log         zerolog.Logger
}

// Entry is a fixture file found in the store.
type Entry struct {
	Name
	Path string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{
		Dir:         dir,
		DedupWindow: DefaultDedupWindow,
		Log:         log.With().Str("component", "fixture-store").Logger(),
	}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// List returns fixture entries for symbol (all symbols when empty), newest first.
// Files that do not follow the naming scheme are ignored.
func (s *Store) List(symbol string, kind Kind) ([]Entry, error) {
	des, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Entry
	for _, de := range des {
		if de.IsDir() {
			continue
		}
		n, err := ParseName(de.Name())
		if err != nil {
			continue
		}
		if symbol != "" && n.Symbol != symbol {
			continue
		}
		if kind != "" && n.Kind != kind {
			continue
		}
		out = append(out, Entry{Name: n, Path: filepath.Join(s.Dir, de.Name())})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out, nil
}

// WriteResult reports what a write did.
type WriteResult struct {
	Path    string
	Written bool // false when skipped as a duplicate
	Bytes   int
}

// WriteInfo stores an info snapshot for symbol.
func (s *Store) WriteInfo(symbol string, info map[string]any) (WriteResult, error) {
	now := s.now()
	doc := infoDoc{Symbol: symbol, Info: info, Timestamp: now.Format(time.RFC3339)}
	return s.write(Name{Symbol: symbol, At: now, Kind: KindInfo}, doc, func(b []byte) error {
		var check infoDoc
		return json.Unmarshal(b, &check)
	})
}

// WriteHistory stores a price history for symbol. An empty history is not written.
func (s *Store) WriteHistory(symbol string, points []types.PricePoint) (WriteResult, error) {
	if len(points) == 0 {
		return WriteResult{}, fmt.Errorf("no history for %s", symbol)
	}
	now := s.now()
	doc := newHistoryDoc(symbol, points, now)
	return s.write(Name{Symbol: symbol, At: now, Kind: KindHistory}, doc, func(b []byte) error {
		var check historyDoc
		if err := json.Unmarshal(b, &check); err != nil {
			return err
		}
		_, err := check.points()
		return err
	})
}

func (s *Store) write(n Name, doc any, verify func([]byte) error) (WriteResult, error) {
	if dup, ok, err := s.recent(n); err != nil {
		return WriteResult{}, err
	} else if ok {
		s.Log.Info().Str("symbol", n.Symbol).Str("kind", string(n.Kind)).Str("existing", filepath.Base(dup.Path)).Msg("Skipping duplicate capture")
		return WriteResult{Path: dup.Path}, nil
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("create fixture dir: %w", err)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return WriteResult{}, fmt.Errorf("encode %s: %w", n, err)
	}
	path := filepath.Join(s.Dir, n.String())

	tmp, err := os.CreateTemp(s.Dir, ".kabu-*.tmp")
	if err != nil {
		return WriteResult{}, err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return WriteResult{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return WriteResult{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return WriteResult{}, err
	}

	// Read back what landed on disk.
	back, err := os.ReadFile(path)
	if err == nil {
		err = verify(back)
	}
	if err != nil {
		os.Remove(path)
		return WriteResult{}, fmt.Errorf("verify %s: %w", filepath.Base(path), err)
	}
	return WriteResult{Path: path, Written: true, Bytes: len(back)}, nil
}

// recent returns an existing capture of the same symbol and kind inside the dedup window.
func (s *Store) recent(n Name) (Entry, bool, error) {
	if s.DedupWindow <= 0 {
		return Entry{}, false, nil
	}
	entries, err := s.List(n.Symbol, n.Kind)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		d := n.At.Sub(e.At)
		if d < 0 {
			d = -d
		}
		if d < s.DedupWindow {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// Latest builds a record from the newest info fixture of symbol, with the
// newest history attached when one exists.
func (s *Store) Latest(ctx context.Context, symbol string) (types.Record, error) {
	if err := ctx.Err(); err != nil {
		return types.Record{}, err
	}
	infos, err := s.List(symbol, KindInfo)
	if err != nil {
		return types.Record{}, err
	}
	if len(infos) == 0 {
		return types.Record{}, fmt.Errorf("%w: no info fixture for %s in %s", types.ErrFixtureNotFound, symbol, s.Dir)
	}
	latest := infos[0]

	var doc infoDoc
	if err := readJSON(latest.Path, &doc); err != nil {
		return types.Record{}, err
	}
	rec := types.RecordFromInfo(symbol, doc.Info)
	rec.Source = types.SourceFixture
	rec.FetchedAt = latest.At
	if t, err := parseTime(doc.Timestamp); err == nil {
		rec.FetchedAt = t
	}

	hists, err := s.List(symbol, KindHistory)
	if err != nil {
		return types.Record{}, err
	}
	if len(hists) > 0 {
		var hd historyDoc
		if err := readJSON(hists[0].Path, &hd); err != nil {
			s.Log.Warn().Err(err).Str("symbol", symbol).Msg("Ignoring unreadable history fixture")
		} else if pts, err := hd.points(); err != nil {
			s.Log.Warn().Err(err).Str("symbol", symbol).Msg("Ignoring malformed history fixture")
		} else {
			rec.History = pts
		}
	}
	if rec.Price == nil {
		rec.Price = rec.LastClose()
	}
	return rec, nil
}

// Clean removes every fixture file of the given symbols (all fixtures when
// symbols is empty) and returns how many were removed.
func (s *Store) Clean(symbols []string) (int, error) {
	want := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		want[sym] = struct{}{}
	}
	entries, err := s.List("", "")
	if err != nil {
		return 0, err
	}
	removed := 0
	var errs []error
	for _, e := range entries {
		if _, ok := want[e.Symbol]; !ok && len(want) > 0 {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		s.Log.Debug().Str("file", filepath.Base(e.Path)).Msg("Removed fixture")
		removed++
	}
	return removed, errors.Join(errs...)
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
