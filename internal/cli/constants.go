package cli

// Default values for CLI flags and output.
const (
	// DefaultHistoryLimit is the number of entries `history list` prints.
	DefaultHistoryLimit = 50
	// MaxSongInfoLength truncates song descriptions in tables.
	MaxSongInfoLength = 60
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// DateFormat renders history dates.
	DateFormat = "2006-01-02 15:04"
)
