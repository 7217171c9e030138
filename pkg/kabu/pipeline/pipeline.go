// Package pipeline ties sources, providers, metrics and renderers together.
package pipeline

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/komsit37/kabu/pkg/kabu/columns"
	"github.com/komsit37/kabu/pkg/kabu/filter"
	"github.com/komsit37/kabu/pkg/kabu/metrics"
	"github.com/komsit37/kabu/pkg/kabu/provider"
	"github.com/komsit37/kabu/pkg/kabu/render"
	"github.com/komsit37/kabu/pkg/kabu/source"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

// DefaultConcurrency bounds parallel fetches when Runner.Concurrency is unset.
const DefaultConcurrency = 4

type Runner struct {
	Source      source.Source
	Provider    provider.Provider
	Renderer    render.Renderer
	Writer      io.Writer
	Concurrency int
	Log         zerolog.Logger
}

type ExecuteOptions struct {
	Columns []string
	Filter  filter.Filter
	Render  render.Options
}

// Execute loads, evaluates and renders.
func (r *Runner) Execute(ctx context.Context, opts ExecuteOptions) error {
	sheets, err := r.Sheets(ctx, opts)
	if err != nil {
		return err
	}
	return r.Renderer.Render(r.Writer, sheets, opts.Render)
}

// Sheets loads the source, applies the filter and evaluates every item.
func (r *Runner) Sheets(ctx context.Context, opts ExecuteOptions) ([]types.Sheet, error) {
	lists, err := r.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	lists = filter.Apply(lists, opts.Filter)

	var all []types.Item
	for _, l := range lists {
		all = append(all, l.Items...)
	}
	if len(opts.Columns) > 0 {
		if err := columns.Validate(opts.Columns, all); err != nil {
			return nil, err
		}
	}
	rows := r.EvaluateItems(ctx, all)

	sheets := make([]types.Sheet, 0, len(lists))
	for _, l := range lists {
		cols := l.Columns
		if len(opts.Columns) > 0 {
			cols = opts.Columns
		}
		sheets = append(sheets, types.Sheet{
			Name:    l.Name,
			Columns: columns.Compute(cols, l.Items),
			Rows:    rows[:len(l.Items):len(l.Items)],
		})
		rows = rows[len(l.Items):]
	}
	return sheets, nil
}

// Evaluate fetches and derives metrics for each symbol. Rows come back in
// input order; a failed fetch yields a row with all metrics unavailable.
func (r *Runner) Evaluate(ctx context.Context, symbols []string) []types.Row {
	return r.EvaluateItems(ctx, source.ListFromSymbols("", symbols).Items)
}

// EvaluateItems is Evaluate for watchlist items.
func (r *Runner) EvaluateItems(ctx context.Context, items []types.Item) []types.Row {
	rows := make([]types.Row, len(items))
	n := r.Concurrency
	if n <= 0 {
		n = DefaultConcurrency
	}
	p := pool.New().WithMaxGoroutines(n)
	for i, it := range items {
		p.Go(func() {
			rows[i] = r.evaluate(ctx, it)
		})
	}
	p.Wait()
	return rows
}

func (r *Runner) evaluate(ctx context.Context, it types.Item) types.Row {
	if it.Sym == "" {
		return types.Row{Item: it, Metrics: metrics.Calculate(types.Record{})}
	}
	out := r.Provider.Fetch(ctx, it.Sym)
	row := types.Row{Item: it, Outcome: out}
	row.Metrics = metrics.Calculate(row.Record())
	if f := out.Failure; f != nil {
		r.Log.Warn().Str("symbol", it.Sym).Str("reason", string(f.Reason)).Str("detail", f.Detail).Msg("Fetch failed")
	}
	return row
}
