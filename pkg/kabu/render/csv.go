package render

import (
	"io"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// CSVRenderer writes one CSV block per sheet, separated by a blank line.
type CSVRenderer struct{}

func (CSVRenderer) Render(w io.Writer, sheets []types.Sheet, opts Options) error {
	for i, sheet := range sheets {
		tw := newWriter(sheet, Options{MaxColWidth: 1 << 20})
		for _, row := range sheet.Rows {
			tw.AppendRow(plainRow(sheet.Columns, row))
		}
		if _, err := io.WriteString(w, tw.RenderCSV()+"\n"); err != nil {
			return err
		}
		if i < len(sheets)-1 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
