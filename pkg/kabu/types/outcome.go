package types

import (
	"errors"
	"fmt"
)

// Reason classifies a failed fetch.
type Reason string

const (
	ReasonUpstreamUnavailable Reason = "upstream_unavailable"
	ReasonFixtureNotFound     Reason = "fixture_not_found"
)

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrFixtureNotFound     = errors.New("fixture not found")
)

// Failure describes why no record could be produced for a symbol.
type Failure struct {
	Reason   Reason `json:"reason"`
	Detail   string `json:"detail"`
	Attempts int    `json:"attempts,omitempty"`
}

// Err returns the failure as an error wrapping the matching sentinel.
func (f Failure) Err() error {
	base := ErrUpstreamUnavailable
	if f.Reason == ReasonFixtureNotFound {
		base = ErrFixtureNotFound
	}
	if f.Detail == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, f.Detail)
}

// Outcome is the tagged result of a provider call: exactly one of Record or Failure is set.
type Outcome struct {
	Symbol  string   `json:"symbol"`
	Record  *Record  `json:"record,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Success wraps a fetched record.
func Success(rec Record) Outcome {
	return Outcome{Symbol: rec.Symbol, Record: &rec}
}

// Fail builds a failed outcome for symbol.
func Fail(symbol string, reason Reason, detail string, attempts int) Outcome {
	return Outcome{Symbol: symbol, Failure: &Failure{Reason: reason, Detail: detail, Attempts: attempts}}
}

// OK reports whether the outcome carries a record.
func (o Outcome) OK() bool { return o.Record != nil && o.Failure == nil }
