package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// symsRenderer prints all symbols in a single comma-separated line.
type symsRenderer struct{}

func NewSymsRenderer() Renderer {
	return symsRenderer{}
}

func (symsRenderer) Render(w io.Writer, sheets []types.Sheet, _ Options) error {
	var symbols []string
	for _, sheet := range sheets {
		for _, row := range sheet.Rows {
			if sym := strings.TrimSpace(row.Item.Sym); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
