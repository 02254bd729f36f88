// Package errors holds the sentinel errors shared across beatsync packages
// and small helpers for wrapping them with context.
package errors

import "fmt"

// Common error types.
var (
	// Path errors.
	ErrInvalidPath = fmt.Errorf("invalid path")
	ErrPathTooLong = fmt.Errorf("path exceeds the maximum length of the file system")

	// Song errors.
	ErrInvalidHash    = fmt.Errorf("invalid beatmap hash")
	ErrInvalidKey     = fmt.Errorf("invalid beatmap key")
	ErrInvalidRequest = fmt.Errorf("song has neither a hash nor a key")
	ErrNotFound       = fmt.Errorf("beatmap not found on provider")

	// History errors.
	ErrHistoryUninitialized = fmt.Errorf("history store has not been initialized")
	ErrHistoryCorrupt       = fmt.Errorf("history file is corrupt")
	ErrHistoryWrite         = fmt.Errorf("failed to write history file")

	// Download errors.
	ErrManagerClosed   = fmt.Errorf("download manager is not accepting jobs")
	ErrContainerClosed = fmt.Errorf("download container has been disposed")
	ErrDownloadFailed  = fmt.Errorf("download failed")

	// Target errors.
	ErrHashMismatch = fmt.Errorf("extracted beatmap does not match the expected hash")
	ErrNoTargets    = fmt.Errorf("no target wants the song")

	// Feed errors.
	ErrFeedRead            = fmt.Errorf("failed to read feed")
	ErrFeedNoSettings      = fmt.Errorf("feed is not configured")
	ErrUnsupportedFeedFile = fmt.Errorf("unsupported feed file type")

	// Playlist errors.
	ErrPlaylistParse   = fmt.Errorf("failed to parse playlist")
	ErrPlaylistWrite   = fmt.Errorf("failed to write playlist")
	ErrInvalidPlaylist = fmt.Errorf("invalid playlist name")
	ErrInvalidStyle    = fmt.Errorf("invalid playlist style")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to replace config file")
	ErrUnknownFeedKind   = fmt.Errorf("unknown feed kind")
	ErrConfigFileExists  = fmt.Errorf("config file already exists")
	ErrUnknownFeed       = fmt.Errorf("unknown feed")

	// Hook errors.
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
