//go:build windows

package main

import (
	"os"
	"strconv"
)

// detectTerminalWidth returns $COLUMNS, or 0 when unset.
func detectTerminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 0
}
