package hooks

// HookType names the point in the pipeline a script runs at.
type HookType string

// Supported hook types.
const (
	// SongFilter decides whether a song is wanted. The script sets the
	// boolean variable wanted; it defaults to true.
	SongFilter HookType = "song-filter"
	// PostDownload runs after a beatmap was extracted and verified.
	PostDownload HookType = "post-download"
)

// HookTypes lists every supported hook type.
func HookTypes() []HookType {
	return []HookType{SongFilter, PostDownload}
}

// Hook is a script bound to a hook type.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext is exposed to scripts as global variables.
type HookContext struct {
	SongHash   string
	SongKey    string
	SongName   string
	Mapper     string
	Source     string
	TargetName string
	// SongDir is the extracted beatmap directory; empty for song-filter.
	SongDir string
	Vars    map[string]interface{}
}
