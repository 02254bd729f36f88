package cli

import (
	"os"

	"github.com/fatih/color"

	"github.com/cperrin88/beatsync/internal/logger"
)

// InitOutput configures the process logger and colored output. Colors are
// also disabled when stdout is not a terminal.
func InitOutput(logLevel string, noColor bool) {
	logger.InitLogger(logLevel, logger.FormatText)
	if noColor || !isTTY() {
		color.NoColor = true
	}
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
