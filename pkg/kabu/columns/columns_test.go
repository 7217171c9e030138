package columns

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/kabu/pkg/kabu/metrics"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

func sampleRow() types.Row {
	rec := types.Record{
		Symbol:            "8194.T",
		CompanyName:       "LIFE CORPORATION",
		Price:             types.Float(2458),
		TrailingPE:        types.Float(10),
		BookValuePerShare: types.Float(1633.747),
		MarketCap:         types.Float(115_234_567_890),
		Sector:            "Consumer Defensive",
	}
	return types.Row{
		Item:    types.Item{Sym: "8194.T", Fields: map[string]any{"sym": "8194.T", "note": "supermarket"}},
		Outcome: types.Success(rec),
		Metrics: metrics.Calculate(rec),
	}
}

func TestDisplay(t *testing.T) {
	r := sampleRow()

	assert.Equal(t, "8194.T", Display("sym", r))
	assert.Equal(t, "LIFE CORPORATION", Display("name", r))
	assert.Equal(t, "2,458.00", Display("price", r))
	assert.Equal(t, "10.00%", Display("ey", r))
	assert.Equal(t, "66.47%", Display("bpr", r))
	assert.Equal(t, "115,234,567,890", Display("mcap", r))
	assert.Equal(t, "40%", Display("completeness", r))
	assert.Equal(t, "partial", Display("quality", r))
	assert.Equal(t, "ok", Display("status", r))
	assert.Equal(t, "supermarket", Display("note", r))
	assert.Equal(t, Placeholder, Display("ey_next", r))
	assert.Equal(t, Placeholder, Display("error", r))
	assert.Equal(t, Placeholder, Display("nope", r))
}

func TestDisplay_ItemNameWins(t *testing.T) {
	r := sampleRow()
	r.Item.Name = "Life"

	assert.Equal(t, "Life", Display("name", r))
}

func TestDisplay_FailureRow(t *testing.T) {
	r := types.Row{
		Item:    types.Item{Sym: "BAD"},
		Outcome: types.Fail("BAD", types.ReasonUpstreamUnavailable, "429 Too Many Requests", 2),
		Metrics: metrics.Calculate(types.Record{Symbol: "BAD"}),
	}

	assert.Equal(t, "BAD", Display("sym", r))
	assert.Equal(t, Placeholder, Display("price", r))
	assert.Equal(t, "upstream_unavailable", Display("status", r))
	assert.Equal(t, "429 Too Many Requests", Display("error", r))
	assert.Equal(t, "invalid", Display("quality", r))
}

func TestDisplay_RawMagnitudeOutOfBound(t *testing.T) {
	rec := types.Record{
		Symbol:            "X",
		Price:             types.Float(100),
		MarketCap:         types.Float(2e19),
		SharesOutstanding: types.Float(-3e18),
	}
	r := types.Row{Item: types.Item{Sym: "X"}, Outcome: types.Success(rec), Metrics: metrics.Calculate(rec)}

	assert.Equal(t, Placeholder, Display("mcap", r))
	assert.Equal(t, Placeholder, Display("shares", r))
	assert.Nil(t, Lookup("mcap").Value(r))
	assert.Nil(t, Lookup("shares").Value(r))
}

func TestValue(t *testing.T) {
	r := sampleRow()

	assert.Equal(t, 2458.0, Lookup("price").Value(r))
	assert.Nil(t, Lookup("div").Value(r))
	assert.Nil(t, Lookup("industry").Value(r))
	assert.Equal(t, "supermarket", Lookup("note").Value(r))
	assert.True(t, Lookup("price").Numeric)
	assert.False(t, Lookup("sym").Numeric)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "+1.23%", SignedPercent(1.234))
	assert.Equal(t, "-0.50%", SignedPercent(-0.5))
	assert.Equal(t, "0.00%", SignedPercent(0))
	assert.Equal(t, "-1,234.50", Decimal(-1234.5))
	assert.Equal(t, "500,000,000", Whole(500_000_000))
	assert.Equal(t, "1,000,000,000,000,000", Whole(metrics.MaxMagnitude))
	assert.Empty(t, Whole(1e19))
	assert.Empty(t, Whole(-1e300))
}

func TestCompute(t *testing.T) {
	items := []types.Item{
		{Sym: "A", Fields: map[string]any{"sym": "A", "note": "x"}},
		{Sym: "B", Fields: map[string]any{"sym": "B", "broker": "y"}},
	}

	got := Compute(nil, items)
	assert.Equal(t, append(append([]string(nil), Sets["default"]...), "broker", "note"), got)

	assert.Equal(t, []string{"sym", "price"}, Compute([]string{"sym", "price", "sym", " "}, items))
}

func TestValidate(t *testing.T) {
	items := []types.Item{{Sym: "A", Fields: map[string]any{"note": "x"}}}

	assert.NoError(t, Validate([]string{"sym", "ey", "note"}, items))

	err := Validate([]string{"sym", "roe"}, items)
	var uce *UnknownColumnError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "roe", uce.Name)
	assert.Contains(t, uce.Available, "bpr")
}

func TestExpandSets(t *testing.T) {
	cols, err := ExpandSets([]string{"default", "quality"})
	require.NoError(t, err)
	assert.Equal(t, "sym", cols[0])
	assert.Contains(t, cols, "fetched_at")
	assert.Equal(t, 1, count(cols, "quality"))

	_, err = ExpandSets([]string{"bogus"})
	var use *UnknownSetError
	require.True(t, errors.As(err, &use))
	assert.Equal(t, []string{"default", "profile", "quality", "valuation"}, use.Available)
}

func TestSetsOnlyReferenceRegisteredColumns(t *testing.T) {
	for name, cols := range Sets {
		for _, c := range cols {
			_, ok := Registry[c]
			assert.True(t, ok, "set %s references unknown column %s", name, c)
		}
	}
}

func count(s []string, v string) int {
	n := 0
	for _, e := range s {
		if e == v {
			n++
		}
	}
	return n
}
