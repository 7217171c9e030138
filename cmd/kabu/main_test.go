package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/kabu/pkg/kabu/columns"
	"github.com/komsit37/kabu/pkg/kabu/fixture"
	"github.com/komsit37/kabu/pkg/kabu/render"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KABU_LOG_LEVEL", "error")
	t.Setenv("KABU_LOG_PRETTY", "false")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSelectColumns(t *testing.T) {
	cols, err := selectColumns("sym, price", "quality")
	require.NoError(t, err)
	assert.Equal(t, append([]string{"sym", "price"}, columns.Sets["quality"]...), cols)

	cols, err = selectColumns("", "")
	require.NoError(t, err)
	assert.Empty(t, cols)

	_, err = selectColumns("", "nope")
	var setErr *columns.UnknownSetError
	assert.ErrorAs(t, err, &setErr)
}

func TestTable_FixtureProviderJSON(t *testing.T) {
	dir := t.TempDir()
	store := fixture.NewStore(dir, zerolog.Nop())
	_, err := store.WriteInfo("AAA", map[string]any{
		"symbol":       "AAA",
		"currentPrice": 100.0,
		"trailingPE":   20.0,
		"bookValue":    50.0,
	})
	require.NoError(t, err)
	t.Setenv("KABU_FIXTURE_DIR", dir)

	out, err := execute(t, "table", "--provider", "fixture", "--symbols", "AAA,MISSING", "--format", "json")
	require.NoError(t, err)

	var sheets []render.Sheet
	require.NoError(t, json.Unmarshal([]byte(out), &sheets))
	require.Len(t, sheets, 1)
	rows := sheets[0].Rows
	require.Len(t, rows, 2)

	assert.Equal(t, "AAA", rows[0].Sym)
	require.NotNil(t, rows[0].Metrics.CurrentYearEarningsYield)
	assert.InDelta(t, 5.0, *rows[0].Metrics.CurrentYearEarningsYield, 1e-9)

	assert.Equal(t, "MISSING", rows[1].Sym)
	require.NotNil(t, rows[1].Failure)
	assert.Equal(t, types.ReasonFixtureNotFound, rows[1].Failure.Reason)
}

func TestTable_Syms(t *testing.T) {
	t.Setenv("KABU_FIXTURE_DIR", t.TempDir())

	out, err := execute(t, "table", "--provider", "fixture", "--symbols", "8194.T,AAPL", "--format", "syms")
	require.NoError(t, err)
	assert.Equal(t, "8194.T,AAPL\n", out)
}

func TestTable_InvalidInput(t *testing.T) {
	t.Setenv("KABU_FIXTURE_DIR", t.TempDir())

	_, err := execute(t, "table", "--provider", "fixture", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "table", "--provider", "csv")
	assert.ErrorContains(t, err, "provider must be")

	_, err = execute(t, "table", "--provider", "fixture", "--columns", "nope")
	var colErr *columns.UnknownColumnError
	assert.ErrorAs(t, err, &colErr)
}

func TestFixtures_CleanOnly(t *testing.T) {
	dir := t.TempDir()
	store := fixture.NewStore(dir, zerolog.Nop())
	for _, sym := range []string{"AAA", "BBB"} {
		_, err := store.WriteInfo(sym, map[string]any{"currentPrice": 1.0})
		require.NoError(t, err)
	}
	keep := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	_, err := execute(t, "fixtures", "--output-dir", dir, "--symbols", "AAA", "--clean-only")
	require.NoError(t, err)

	left, err := store.List("", "")
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "BBB", left[0].Symbol)
	assert.FileExists(t, keep)
}

func TestFixtures_InvalidFlags(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "fixtures", "--output-dir", dir, "--clean-only", "--no-clean")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = execute(t, "fixtures", "--output-dir", dir, "--period", "3w")
	assert.ErrorContains(t, err, "period")

	_, err = execute(t, "fixtures", "--output-dir", dir, "--symbols", " , ")
	assert.ErrorContains(t, err, "no valid symbols")
}
