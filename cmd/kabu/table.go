package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/komsit37/kabu/pkg/kabu/columns"
	"github.com/komsit37/kabu/pkg/kabu/filter"
	"github.com/komsit37/kabu/pkg/kabu/pipeline"
	"github.com/komsit37/kabu/pkg/kabu/render"
	"github.com/komsit37/kabu/pkg/kabu/source"
)

type tableFlags struct {
	columns     string
	sets        string
	list        string
	format      string
	noColor     bool
	width       int
	maxColWidth int
	pretty      bool
	noFooter    bool
}

func newTableCmd(a *app) *cobra.Command {
	var f tableFlags

	cmd := &cobra.Command{
		Use:   "table [watchlist.yaml|dir]",
		Short: "Fetch fundamentals and render them as a table",
		Long: `Fetch fundamentals for a YAML watchlist (file or directory) or for
--symbols, derive valuation metrics and render them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable(cmd, a, f, args)
		},
	}

	fl := cmd.Flags()
	fl.String("symbols", "", "comma separated symbols (used when no watchlist is given)")
	fl.String("provider", "live", "data provider: live or fixture")
	fl.Int("concurrency", 4, "symbols fetched in parallel")
	fl.StringVar(&f.columns, "columns", "", "comma separated columns (see --columns help)")
	fl.StringVar(&f.sets, "sets", "", "comma separated column sets: default, valuation, profile, quality")
	fl.StringVarP(&f.list, "list", "l", "", "filter lists: name, a,b, glob*, or /regex/")
	fl.StringVarP(&f.format, "format", "f", "table", "output format: "+strings.Join(render.Formats, ", "))
	fl.BoolVar(&f.noColor, "no-color", false, "disable colors")
	fl.IntVar(&f.width, "width", 0, "max table width (default: terminal width)")
	fl.IntVar(&f.maxColWidth, "max-col-width", 0, "wrap text columns wider than this")
	fl.BoolVar(&f.pretty, "pretty", false, "indent JSON output")
	fl.BoolVar(&f.noFooter, "no-footer", false, "omit the summary footer")
	bindFlags(fl, map[string]string{
		"symbols":          "symbols",
		"provider":         "provider",
		"live.concurrency": "concurrency",
	})
	return cmd
}

func runTable(cmd *cobra.Command, a *app, f tableFlags, args []string) error {
	var src source.Source
	if len(args) == 1 {
		src = source.YAMLSource{Path: args[0]}
	} else {
		if len(source.SplitSymbols(a.cfg.Symbols)) == 0 {
			return errors.New("no watchlist given and --symbols is empty")
		}
		src = source.InlineSource{Symbols: a.cfg.Symbols}
	}

	cols, err := selectColumns(f.columns, f.sets)
	if err != nil {
		return err
	}
	flt, err := filter.Parse(f.list)
	if err != nil {
		return err
	}
	renderer, err := render.New(f.format)
	if err != nil {
		return err
	}
	p, err := a.provider(a.cfg.Provider)
	if err != nil {
		return err
	}

	width := f.width
	if width == 0 {
		width = detectTerminalWidth()
	}

	runner := &pipeline.Runner{
		Source:      src,
		Provider:    p,
		Renderer:    renderer,
		Writer:      cmd.OutOrStdout(),
		Concurrency: a.cfg.Live.Concurrency,
		Log:         a.log,
	}
	return runner.Execute(cmd.Context(), pipeline.ExecuteOptions{
		Columns: cols,
		Filter:  flt,
		Render: render.Options{
			Color:       !f.noColor,
			PrettyJSON:  f.pretty,
			MaxColWidth: f.maxColWidth,
			Width:       width,
			NoFooter:    f.noFooter,
		},
	})
}

// selectColumns merges --columns and --sets; explicit columns come first.
func selectColumns(cols, sets string) ([]string, error) {
	var out []string
	for _, c := range strings.Split(cols, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if sets != "" {
		expanded, err := columns.ExpandSets(strings.Split(sets, ","))
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}
