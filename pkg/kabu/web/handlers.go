package web

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/komsit37/kabu/pkg/kabu/columns"
	"github.com/komsit37/kabu/pkg/kabu/metrics"
	"github.com/komsit37/kabu/pkg/kabu/pipeline"
	"github.com/komsit37/kabu/pkg/kabu/provider"
	"github.com/komsit37/kabu/pkg/kabu/render"
	"github.com/komsit37/kabu/pkg/kabu/source"
	"github.com/komsit37/kabu/pkg/kabu/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"service":  "kabu",
		"sessions": s.sessions.Len(),
	})
}

// handleMetrics evaluates ?symbols= with ?provider= and returns the sheet as JSON.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	q := s.parseQuery(r)
	p, err := s.resolve(w, r, q.Provider)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(q.Symbols) == 0 {
		s.writeError(w, http.StatusBadRequest, "no symbols given")
		return
	}
	sheet := s.evaluate(r, p, q)
	s.writeJSON(w, http.StatusOK, render.ToJSON([]types.Sheet{sheet})[0])
}

type pageData struct {
	Input       string
	Provider    string
	Providers   []string
	Error       string
	Table       template.HTML
	Summary     metrics.Summary
	Diagnostics []diagnostic
}

type diagnostic struct {
	Sym          string
	Status       string
	Failure      *types.Failure
	Source       string
	Completeness float64
	Rules        map[string]string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := s.parseQuery(r)
	data := pageData{
		Input:     q.Input,
		Provider:  q.Provider,
		Providers: s.providerNames(),
	}

	p, err := s.resolve(w, r, q.Provider)
	switch {
	case err != nil:
		data.Error = err.Error()
	case len(q.Symbols) == 0:
		data.Error = "Enter at least one symbol."
	default:
		sheet := s.evaluate(r, p, q)
		data.Table = template.HTML(render.HTMLTable(sheet, render.Options{}))
		data.Summary = metrics.Summarize(sheet.Rows)
		for _, row := range sheet.Rows {
			rec := row.Record()
			data.Diagnostics = append(data.Diagnostics, diagnostic{
				Sym:          row.Item.Sym,
				Status:       columns.Display("status", row),
				Failure:      row.Outcome.Failure,
				Source:       rec.Source,
				Completeness: row.Metrics.CompletenessScore * 100,
				Rules:        metrics.Explain(rec),
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("Failed to render page")
	}
}

type query struct {
	Input    string
	Symbols  []string
	Provider string
}

func (s *Server) parseQuery(r *http.Request) query {
	input := r.URL.Query().Get("symbols")
	if !r.URL.Query().Has("symbols") {
		input = s.cfg.DefaultSymbols
	}
	name := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("provider")))
	if name == "" {
		name = s.defaultProvider()
	}
	return query{Input: input, Symbols: source.SplitSymbols(input), Provider: name}
}

// resolve picks the provider for a request. Live goes through the caller's
// session cache; fixtures are read directly.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request, name string) (provider.Provider, error) {
	switch name {
	case provider.NameLive:
		if s.cfg.Live != nil {
			return s.sessions.Acquire(w, r).Live, nil
		}
	case provider.NameFixture:
		if s.cfg.Fixture != nil {
			return s.cfg.Fixture, nil
		}
	}
	return nil, fmt.Errorf("unknown provider %q (available: %s)", name, strings.Join(s.providerNames(), ", "))
}

func (s *Server) defaultProvider() string {
	names := s.providerNames()
	want := strings.ToLower(strings.TrimSpace(s.cfg.DefaultProvider))
	for _, n := range names {
		if n == want {
			return n
		}
	}
	return names[0]
}

func (s *Server) providerNames() []string {
	var names []string
	if s.cfg.Live != nil {
		names = append(names, provider.NameLive)
	}
	if s.cfg.Fixture != nil {
		names = append(names, provider.NameFixture)
	}
	return names
}

func (s *Server) evaluate(r *http.Request, p provider.Provider, q query) types.Sheet {
	runner := pipeline.Runner{Provider: p, Concurrency: s.cfg.Concurrency, Log: s.log}
	return types.Sheet{
		Name:    q.Provider,
		Columns: columns.Sets["default"],
		Rows:    runner.Evaluate(r.Context(), q.Symbols),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
