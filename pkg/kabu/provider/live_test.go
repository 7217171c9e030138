package provider_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/komsit37/kabu/pkg/kabu/provider"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

func newLive(t *testing.T, up provider.Upstream, waits *[]time.Duration) *provider.Live {
	t.Helper()
	live := provider.NewLive(up, zerolog.Nop())
	live.Sleep = recordSleep(waits)
	live.Now = func() time.Time { return time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC) }
	return live
}

func TestLive_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	// Arrange: upstream rate-limits once, then answers.
	ctrl := gomock.NewController(t)
	up := NewMockUpstream(ctrl)
	gomock.InOrder(
		up.EXPECT().Info(gomock.Any(), "8194.T").Return(nil, errors.New("429 Too Many Requests")),
		up.EXPECT().Info(gomock.Any(), "8194.T").Return(map[string]any{"currentPrice": 2458.0, "trailingPE": 11.8}, nil),
	)
	var waits []time.Duration

	// Act
	out := newLive(t, up, &waits).Fetch(t.Context(), "8194.T")

	// Assert
	require.True(t, out.OK())
	assert.Equal(t, "8194.T", out.Record.Symbol)
	assert.Equal(t, types.SourceLive, out.Record.Source)
	assert.InDelta(t, 2458.0, *out.Record.Price, 1e-9)
	assert.Equal(t, []time.Duration{time.Second}, waits)
}

func TestLive_FailureCarriesLastError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := NewMockUpstream(ctrl)
	up.EXPECT().Info(gomock.Any(), "AAPL").Return(nil, errors.New("dial tcp: timeout")).Times(2)
	var waits []time.Duration

	out := newLive(t, up, &waits).Fetch(t.Context(), "AAPL")

	require.False(t, out.OK())
	assert.Equal(t, types.ReasonUpstreamUnavailable, out.Failure.Reason)
	assert.Equal(t, 2, out.Failure.Attempts)
	assert.Contains(t, out.Failure.Detail, "dial tcp: timeout")
	assert.ErrorIs(t, out.Failure.Err(), types.ErrUpstreamUnavailable)
}

func TestLive_EmptyResponseIsRetried(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := NewMockUpstream(ctrl)
	up.EXPECT().Info(gomock.Any(), "X").Return(map[string]any{}, nil).Times(2)
	var waits []time.Duration

	out := newLive(t, up, &waits).Fetch(t.Context(), "X")

	require.False(t, out.OK())
	assert.Contains(t, out.Failure.Detail, provider.ErrEmptyResponse.Error())
}

func TestLive_RecoversUpstreamPanic(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := NewMockUpstream(ctrl)
	up.EXPECT().Info(gomock.Any(), "X").DoAndReturn(func(any, string) (map[string]any, error) {
		panic("nil map")
	}).Times(2)
	var waits []time.Duration

	var out types.Outcome
	require.NotPanics(t, func() { out = newLive(t, up, &waits).Fetch(t.Context(), "X") })
	assert.False(t, out.OK())
	assert.Contains(t, out.Failure.Detail, "upstream panic")
}

func TestLive_SymbolPassedThrough(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := NewMockUpstream(ctrl)
	up.EXPECT().Info(gomock.Any(), "9715.t").Return(map[string]any{"regularMarketPrice": 1.0}, nil)
	var waits []time.Duration

	out := newLive(t, up, &waits).Fetch(t.Context(), "9715.t")

	require.True(t, out.OK())
	assert.Equal(t, "9715.t", out.Record.Symbol)
}

func TestLive_AttachesHistory(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := NewMockUpstream(ctrl)
	hs := NewMockHistorySource(ctrl)
	up.EXPECT().Info(gomock.Any(), "AAPL").Return(map[string]any{"currentPrice": 200.0}, nil)
	hs.EXPECT().History(gomock.Any(), "AAPL", "5d").Return([]types.PricePoint{{Close: types.Float(198)}, {Close: types.Float(200)}}, nil)
	var waits []time.Duration

	live := newLive(t, up, &waits)
	live.History = hs
	live.HistoryPeriod = "5d"
	out := live.Fetch(t.Context(), "AAPL")

	require.True(t, out.OK())
	assert.Len(t, out.Record.History, 2)
}

func TestLive_HistoryFailureDoesNotFailFetch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	up := NewMockUpstream(ctrl)
	hs := NewMockHistorySource(ctrl)
	up.EXPECT().Info(gomock.Any(), "AAPL").Return(map[string]any{"currentPrice": 200.0}, nil)
	hs.EXPECT().History(gomock.Any(), "AAPL", "5d").Return(nil, errors.New("no data"))
	var waits []time.Duration

	live := newLive(t, up, &waits)
	live.History = hs
	live.HistoryPeriod = "5d"
	out := live.Fetch(t.Context(), "AAPL")

	require.True(t, out.OK())
	assert.Empty(t, out.Record.History)
}
