package fixture

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the part of a capture a fixture file holds.
type Kind string

const (
	KindInfo    Kind = "info"
	KindHistory Kind = "history"
)

const stampLayout = "20060102_150405"

// Name identifies one fixture file: {symbol}_{YYYYMMDD_HHMMSS}_{kind}.json
type Name struct {
	Symbol string
	At     time.Time
	Kind   Kind
}

func (n Name) String() string {
	return fmt.Sprintf("%s_%s_%s.json", n.Symbol, n.At.UTC().Format(stampLayout), n.Kind)
}

// ParseName parses a fixture file name. Parsing runs from the right so
// symbols containing underscores survive.
func ParseName(base string) (Name, error) {
	stem, ok := strings.CutSuffix(base, ".json")
	if !ok {
		return Name{}, fmt.Errorf("not a fixture file: %s", base)
	}
	i := strings.LastIndexByte(stem, '_')
	if i < 0 {
		return Name{}, fmt.Errorf("not a fixture file: %s", base)
	}
	kind := Kind(stem[i+1:])
	if kind != KindInfo && kind != KindHistory {
		return Name{}, fmt.Errorf("unknown fixture kind %q in %s", kind, base)
	}
	stem = stem[:i]
	if len(stem) < len(stampLayout)+2 || stem[len(stem)-len(stampLayout)-1] != '_' {
		return Name{}, fmt.Errorf("missing timestamp in %s", base)
	}
	stamp := stem[len(stem)-len(stampLayout):]
	at, err := time.Parse(stampLayout, stamp)
	if err != nil {
		return Name{}, fmt.Errorf("bad timestamp in %s: %w", base, err)
	}
	return Name{Symbol: stem[:len(stem)-len(stampLayout)-1], At: at, Kind: kind}, nil
}
