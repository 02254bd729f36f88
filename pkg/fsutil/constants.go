// Package fsutil provides file system helpers and permission constants used by
// the history store, the extractor and the playlist writer.
package fsutil

// File and directory permission constants.
const (
	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--
	FileModeSecure  = 0o640 // -rw-r-----

	// Default directory modes.
	DirModeDefault = 0o755 // drwxr-xr-x
	DirModeSecure  = 0o750 // drwxr-x---

	// BackupSuffix is appended to a file name for its recovery sidecar.
	BackupSuffix = ".bak"
)
