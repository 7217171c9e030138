package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/kabu/pkg/kabu/columns"
	"github.com/komsit37/kabu/pkg/kabu/filter"
	"github.com/komsit37/kabu/pkg/kabu/render"
	"github.com/komsit37/kabu/pkg/kabu/source"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

// stubProvider fails for symbols in fail and records peak concurrency.
type stubProvider struct {
	fail map[string]bool

	mu      sync.Mutex
	active  int
	peak    int
	fetches atomic.Int32
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(_ context.Context, symbol string) types.Outcome {
	p.fetches.Add(1)
	p.mu.Lock()
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	time.Sleep(5 * time.Millisecond)
	if p.fail[symbol] {
		return types.Fail(symbol, types.ReasonUpstreamUnavailable, "rate limited", 2)
	}
	return types.Success(types.Record{Symbol: symbol, Price: types.Float(100), TrailingPE: types.Float(20)})
}

func TestEvaluate_OrderAndIsolation(t *testing.T) {
	p := &stubProvider{fail: map[string]bool{"BAD": true}}
	r := &Runner{Provider: p, Concurrency: 2, Log: zerolog.Nop()}
	symbols := []string{"A", "BAD", "C", "D", "E"}

	rows := r.Evaluate(t.Context(), symbols)

	require.Len(t, rows, len(symbols))
	for i, sym := range symbols {
		assert.Equal(t, sym, rows[i].Item.Sym)
	}
	assert.False(t, rows[1].Outcome.OK())
	assert.Nil(t, rows[1].Metrics.CurrentYearEarningsYield)
	assert.Equal(t, types.QualityInvalid, rows[1].Metrics.Quality)
	for _, i := range []int{0, 2, 3, 4} {
		require.True(t, rows[i].Outcome.OK())
		assert.InDelta(t, 5.0, *rows[i].Metrics.CurrentYearEarningsYield, 1e-12)
	}
	assert.LessOrEqual(t, p.peak, 2)
	assert.EqualValues(t, 5, p.fetches.Load())
}

func TestEvaluate_Empty(t *testing.T) {
	r := &Runner{Provider: &stubProvider{}, Log: zerolog.Nop()}
	assert.Empty(t, r.Evaluate(t.Context(), nil))
}

func TestExecute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
watchlist:
  - sym: A
  - name: US
    watchlist:
      - sym: BAD
      - sym: C
`), 0o644))
	var buf bytes.Buffer
	r := &Runner{
		Source:   source.YAMLSource{Path: path},
		Provider: &stubProvider{fail: map[string]bool{"BAD": true}},
		Renderer: render.NewSymsRenderer(),
		Writer:   &buf,
		Log:      zerolog.Nop(),
	}

	require.NoError(t, r.Execute(t.Context(), ExecuteOptions{}))
	assert.Equal(t, "A,BAD,C\n", buf.String())
}

func TestSheets_FilterAndColumns(t *testing.T) {
	p := &stubProvider{}
	r := &Runner{
		Source:   source.InlineSource{Name: "jp", Symbols: "8194.T,9699.T"},
		Provider: p,
		Log:      zerolog.Nop(),
	}

	sheets, err := r.Sheets(t.Context(), ExecuteOptions{Columns: []string{"sym", "ey"}})
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, []string{"sym", "ey"}, sheets[0].Columns)
	require.Len(t, sheets[0].Rows, 2)
	assert.Equal(t, "9699.T", sheets[0].Rows[1].Item.Sym)

	f, err := filter.Parse("us")
	require.NoError(t, err)
	sheets, err = r.Sheets(t.Context(), ExecuteOptions{Filter: f})
	require.NoError(t, err)
	assert.Empty(t, sheets)

	_, err = r.Sheets(t.Context(), ExecuteOptions{Columns: []string{"sym", "roe"}})
	var uce *columns.UnknownColumnError
	assert.ErrorAs(t, err, &uce)
}
