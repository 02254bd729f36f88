package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cperrin88/beatsync/pkg/archive"
	"github.com/cperrin88/beatsync/pkg/beatmap"
)

// BeatmapFiles returns the files of a small v2 beatmap. The seed changes the
// difficulty contents and therefore the hash.
func BeatmapFiles(name, mapper, seed string) map[string]string {
	info := fmt.Sprintf(`{
  "_version": "2.0.0",
  "_songName": %q,
  "_levelAuthorName": %q,
  "_difficultyBeatmapSets": [
    {"_beatmapCharacteristicName": "Standard", "_difficultyBeatmaps": [
      {"_difficulty": "Expert", "_beatmapFilename": "Expert.dat"},
      {"_difficulty": "ExpertPlus", "_beatmapFilename": "ExpertPlus.dat"}
    ]}
  ]
}`, name, mapper)
	return map[string]string{
		"Info.dat":       info,
		"Expert.dat":     `{"_notes":[` + seed + `]}`,
		"ExpertPlus.dat": `{"_notes":[` + seed + `,` + seed + `]}`,
		"song.egg":       strings.Repeat(seed, 256),
	}
}

// WriteBeatmapDir writes files into dir, creating it.
func WriteBeatmapDir(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

// BeatmapZip packs files into a zip archive.
func BeatmapZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	dir := WriteBeatmapDir(t, t.TempDir(), files)
	var buf bytes.Buffer
	require.NoError(t, archive.CreateZip(context.Background(), dir, &buf))
	return buf.Bytes()
}

// BeatmapHash computes the content hash of files.
func BeatmapHash(t *testing.T, files map[string]string) string {
	t.Helper()
	hash, err := beatmap.HashDirectory(WriteBeatmapDir(t, t.TempDir(), files))
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	return hash
}

// SetupTestConfig writes a config file with content and returns its path.
func SetupTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
