package provider_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/kabu/pkg/kabu/provider"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

type mapStore map[string]types.Record

func (m mapStore) Latest(_ context.Context, symbol string) (types.Record, error) {
	if symbol == "BROKEN" {
		return types.Record{}, errors.New("invalid character '}'")
	}
	rec, ok := m[symbol]
	if !ok {
		return types.Record{}, fmt.Errorf("%w: %s", types.ErrFixtureNotFound, symbol)
	}
	return rec, nil
}

func TestFixture_Fetch(t *testing.T) {
	t.Parallel()

	store := mapStore{"9699.T": {Symbol: "9699.T", Price: types.Float(3000)}}
	p := provider.NewFixture(store, zerolog.Nop())

	out := p.Fetch(t.Context(), "9699.T")

	require.True(t, out.OK())
	assert.Equal(t, types.SourceFixture, out.Record.Source)
	assert.Equal(t, provider.NameFixture, p.Name())
}

func TestFixture_NotFound(t *testing.T) {
	t.Parallel()

	p := provider.NewFixture(mapStore{}, zerolog.Nop())

	for _, sym := range []string{"NOPE", "BROKEN"} {
		out := p.Fetch(t.Context(), sym)
		require.False(t, out.OK())
		assert.Equal(t, types.ReasonFixtureNotFound, out.Failure.Reason)
		assert.Zero(t, out.Failure.Attempts)
	}
}
