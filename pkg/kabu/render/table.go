package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/kabu/pkg/kabu/columns"
	"github.com/komsit37/kabu/pkg/kabu/metrics"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, sheets []types.Sheet, opts Options) error {
	multi := len(sheets) > 1
	for si, sheet := range sheets {
		if multi && strings.TrimSpace(sheet.Name) != "" {
			title := strings.ToUpper(sheet.Name)
			if opts.Color {
				title = text.Bold.Sprint(title)
			}
			fmt.Fprintln(w, title)
		}

		tw := newWriter(sheet, opts)
		tw.SetOutputMirror(w)
		if opts.Color {
			tw.SetStyle(table.StyleColoredDark)
		} else {
			tw.SetStyle(table.StyleLight)
		}
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateRows = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Format.Footer = text.FormatDefault
		if opts.Width > 0 {
			tw.SetAllowedRowLength(opts.Width)
		}

		for _, row := range sheet.Rows {
			cells := make(table.Row, len(sheet.Columns))
			for i, c := range sheet.Columns {
				cells[i] = colorize(c, row, columns.Display(c, row), opts.Color)
			}
			tw.AppendRow(cells)
		}
		if !opts.NoFooter && len(sheet.Rows) > 0 {
			tw.AppendFooter(footer(sheet))
		}

		tw.Render()
		if si < len(sheets)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

// newWriter prepares a go-pretty writer with the sheet header and column configs.
func newWriter(sheet types.Sheet, opts Options) table.Writer {
	tw := table.NewWriter()
	tw.Style().Format.Footer = text.FormatDefault

	hdr := make(table.Row, len(sheet.Columns))
	for i, c := range sheet.Columns {
		hdr[i] = strings.ToUpper(columns.Lookup(c).Header)
	}
	tw.AppendHeader(hdr)

	maxWidth := opts.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	cfgs := make([]table.ColumnConfig, 0, len(sheet.Columns))
	for i, c := range sheet.Columns {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if columns.Lookup(c).Numeric {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
			cfg.AlignFooter = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	if len(cfgs) > 0 {
		tw.SetColumnConfigs(cfgs)
	}
	return tw
}

func colorize(col string, row types.Row, s string, color bool) string {
	if !color || s == columns.Placeholder {
		return s
	}
	switch col {
	case "quality", "status":
		switch {
		case !row.Outcome.OK() || row.Metrics.Quality == types.QualityInvalid:
			return text.Colors{text.FgRed}.Sprint(s)
		case row.Metrics.Quality == types.QualityPartial:
			return text.Colors{text.FgYellow}.Sprint(s)
		default:
			return text.Colors{text.FgGreen}.Sprint(s)
		}
	case "chg%", "price":
		if v := row.Metrics.DayChangePercent; v != nil {
			switch {
			case *v < 0:
				return text.Colors{text.FgRed}.Sprint(s)
			case *v > 0:
				return text.Colors{text.FgGreen}.Sprint(s)
			}
		}
	}
	return s
}

// footer places summary statistics under the columns they describe.
func footer(sheet types.Sheet) table.Row {
	sum := metrics.Summarize(sheet.Rows)
	row := make(table.Row, len(sheet.Columns))
	for i, c := range sheet.Columns {
		row[i] = ""
		switch c {
		case "sym":
			row[i] = fmt.Sprintf("%d symbols", sum.Count)
		case "ey":
			if sum.MedianEarningsYield != nil {
				row[i] = "med " + columns.Percent(*sum.MedianEarningsYield)
			}
		case "bpr":
			if sum.MeanBookToPriceRatio != nil {
				row[i] = "avg " + columns.Percent(*sum.MeanBookToPriceRatio)
			}
		case "quality":
			row[i] = fmt.Sprintf("%d/%d valid", sum.Valid, sum.Count)
		case "status":
			row[i] = fmt.Sprintf("%d failed", sum.Failed)
		}
	}
	return row
}
