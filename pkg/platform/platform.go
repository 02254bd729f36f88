package platform

import (
	"runtime"
	"strings"
)

// Limits describes the naming constraints of a file system.
type Limits struct {
	OS            string
	MaxPath       int
	MaxNameLength int
	// InvalidChars are characters that may not appear in a file or directory name.
	InvalidChars string
}

// windowsInvalidChars is the union of .NET's invalid path and file name sets,
// which is also what the game's own tooling sanitises against.
const windowsInvalidChars = "<>:\"/\\|?*"

// Current returns the limits of the platform the process runs on.
func Current() Limits {
	return ForOS(runtime.GOOS)
}

// ForOS returns the limits for the given GOOS value.
func ForOS(goos string) Limits {
	switch strings.ToLower(goos) {
	case OSWindows:
		return Limits{OS: OSWindows, MaxPath: WindowsMaxPath, MaxNameLength: MaxNameLength, InvalidChars: windowsInvalidChars}
	case OSDarwin:
		return Limits{OS: OSDarwin, MaxPath: DarwinMaxPath, MaxNameLength: MaxNameLength, InvalidChars: "/:"}
	default:
		return Limits{OS: strings.ToLower(goos), MaxPath: UnixMaxPath, MaxNameLength: MaxNameLength, InvalidChars: "/"}
	}
}

// IsInvalidNameRune reports whether r may not be used in a file name on this platform.
// Control characters are rejected everywhere.
func (l Limits) IsInvalidNameRune(r rune) bool {
	if r < 0x20 || r == 0x7f {
		return true
	}
	return strings.ContainsRune(l.InvalidChars, r)
}
