package yahoo

import (
	"fmt"
	"slices"
	"strings"
)

// Periods lists the history periods the upstream accepts.
var Periods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidatePeriod rejects periods the upstream does not understand.
func ValidatePeriod(p string) error {
	if slices.Contains(Periods, p) {
		return nil
	}
	return fmt.Errorf("invalid period %q (valid: %s)", p, strings.Join(Periods, ", "))
}
