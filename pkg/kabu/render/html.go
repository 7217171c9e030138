package render

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/komsit37/kabu/pkg/kabu/columns"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

// HTMLCSSClass is the class of rendered <table> elements.
const HTMLCSSClass = "kabu-table"

// HTMLRenderer writes each sheet as an HTML table.
type HTMLRenderer struct{}

func (HTMLRenderer) Render(w io.Writer, sheets []types.Sheet, opts Options) error {
	for _, sheet := range sheets {
		if _, err := io.WriteString(w, HTMLTable(sheet, opts)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// HTMLTable renders one sheet as an escaped HTML table fragment.
func HTMLTable(sheet types.Sheet, opts Options) string {
	tw := newWriter(sheet, Options{MaxColWidth: 1 << 20})
	tw.Style().HTML = table.HTMLOptions{
		CSSClass:    HTMLCSSClass,
		EmptyColumn: "&nbsp;",
		EscapeText:  true,
		Newline:     "<br/>",
	}
	for _, row := range sheet.Rows {
		tw.AppendRow(plainRow(sheet.Columns, row))
	}
	if !opts.NoFooter && len(sheet.Rows) > 0 {
		tw.AppendFooter(footer(sheet))
	}
	return tw.RenderHTML()
}

func plainRow(cols []string, row types.Row) table.Row {
	cells := make(table.Row, len(cols))
	for i, c := range cols {
		cells[i] = columns.Display(c, row)
	}
	return cells
}
