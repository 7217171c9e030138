// Package render writes evaluated sheets in the supported output formats.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Renderer renders sheets to an output writer.
type Renderer interface {
	Render(w io.Writer, sheets []types.Sheet, opts Options) error
}

type Options struct {
	Color       bool
	PrettyJSON  bool
	MaxColWidth int  // wrap wide text columns; 0 = 40
	Width       int  // terminal width; 0 = unlimited
	NoFooter    bool // omit the summary footer
}

// Formats lists the accepted output format names.
var Formats = []string{"table", "csv", "json", "html", "syms"}

// New returns the renderer for format.
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "table":
		return NewTableRenderer(), nil
	case "csv":
		return CSVRenderer{}, nil
	case "json":
		return NewJSONRenderer(), nil
	case "html":
		return HTMLRenderer{}, nil
	case "syms":
		return NewSymsRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown format %q (valid: %s)", format, strings.Join(Formats, ", "))
	}
}
