//go:build !windows

package main

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// detectTerminalWidth returns the stdout terminal width, falling back to
// $COLUMNS, or 0 when unknown.
func detectTerminalWidth() int {
	fd := int(os.Stdout.Fd())
	if ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil && ws != nil && ws.Col > 0 {
		return int(ws.Col)
	}
	return columnsEnv()
}

func columnsEnv() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 0
}
