package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/kabu/pkg/kabu/columns"
	"github.com/komsit37/kabu/pkg/kabu/metrics"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

// Sheet is the JSON shape of one evaluated watchlist.
type Sheet struct {
	Name    string          `json:"name"`
	Columns []string        `json:"columns"`
	Summary metrics.Summary `json:"summary"`
	Rows    []Row           `json:"rows"`
}

// Row is the JSON shape of one symbol. Values hold raw column values with
// null for unavailable.
type Row struct {
	Sym     string         `json:"sym"`
	Name    string         `json:"name,omitempty"`
	Status  string         `json:"status"`
	Failure *types.Failure `json:"failure,omitempty"`
	Values  map[string]any `json:"values"`
	Metrics types.Metrics  `json:"metrics"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, sheets []types.Sheet, opts Options) error {
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(ToJSON(sheets))
}

// ToJSON converts sheets into their JSON model.
func ToJSON(sheets []types.Sheet) []Sheet {
	out := make([]Sheet, 0, len(sheets))
	for _, s := range sheets {
		js := Sheet{
			Name:    s.Name,
			Columns: s.Columns,
			Summary: metrics.Summarize(s.Rows),
			Rows:    make([]Row, 0, len(s.Rows)),
		}
		for _, row := range s.Rows {
			jr := Row{
				Sym:     row.Item.Sym,
				Name:    columns.Lookup("name").Format(row),
				Status:  columns.Lookup("status").Format(row),
				Failure: row.Outcome.Failure,
				Values:  make(map[string]any, len(s.Columns)),
				Metrics: row.Metrics,
			}
			for _, c := range s.Columns {
				jr.Values[c] = columns.Lookup(c).Value(row)
			}
			js.Rows = append(js.Rows, jr)
		}
		out = append(out, js)
	}
	return out
}
