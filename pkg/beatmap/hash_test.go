package beatmap

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/beatsync/pkg/archive"
)

const v2Info = `{
  "_version": "2.1.0",
  "_songName": "Test Song",
  "_levelAuthorName": "Mapper",
  "_difficultyBeatmapSets": [
    {"_beatmapCharacteristicName": "Standard", "_difficultyBeatmaps": [
      {"_difficulty": "Expert", "_beatmapFilename": "Expert.dat"},
      {"_difficulty": "ExpertPlus", "_beatmapFilename": "ExpertPlus.dat"}
    ]},
    {"_beatmapCharacteristicName": "OneSaber", "_difficultyBeatmaps": [
      {"_difficulty": "Hard", "_beatmapFilename": "OneSaberHard.dat"}
    ]}
  ]
}`

const v4Info = `{
  "version": "4.0.1",
  "song": {"title": "New Song"},
  "difficultyBeatmaps": [
    {"characteristic": "Standard", "difficulty": "Easy", "beatmapAuthors": {"mappers": ["A", "B"]},
     "beatmapDataFilename": "Easy.dat", "lightshowDataFilename": "Lightshow.dat"},
    {"characteristic": "Standard", "difficulty": "Hard",
     "beatmapDataFilename": "Hard.dat", "lightshowDataFilename": "Lightshow.dat"}
  ]
}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func sha1Upper(parts ...string) string {
	h := sha1.New() //nolint:gosec
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

func TestHashDirectory_V2(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"Info.dat":         v2Info,
		"Expert.dat":       "expert",
		"ExpertPlus.dat":   "expertplus",
		"OneSaberHard.dat": "onesaber",
		"song.egg":         "audio is not hashed",
	})

	hash, err := HashDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, sha1Upper(v2Info, "expert", "expertplus", "onesaber"), hash)
	assert.Len(t, hash, 40)
}

func TestHashDirectory_V4Order(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"info.dat":      v4Info,
		"Easy.dat":      "easy",
		"Hard.dat":      "hard",
		"Lightshow.dat": "lights",
	})

	hash, err := HashDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, sha1Upper(v4Info, "easy", "lights", "hard", "lights"), hash)
}

func TestHashDirectory_MissingDifficulty(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"info.dat":   v2Info,
		"Expert.dat": "expert",
	})

	hash, err := HashDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, sha1Upper(v2Info, "expert"), hash)
}

func TestHashDirectory_NoManifest(t *testing.T) {
	dir := writeFiles(t, map[string]string{"Expert.dat": "expert"})

	hash, err := HashDirectory(dir)
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestHashDirectory_InvalidManifest(t *testing.T) {
	dir := writeFiles(t, map[string]string{"info.dat": "{not json"})

	_, err := HashDirectory(dir)
	assert.Error(t, err)
}

func TestHashDirectory_RejectsEscapingNames(t *testing.T) {
	info := `{"_version":"2.0.0","_difficultyBeatmapSets":[{"_difficultyBeatmaps":[{"_beatmapFilename":"../outside.dat"}]}]}`
	dir := writeFiles(t, map[string]string{"info.dat": info})

	hash, err := HashDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, sha1Upper(info), hash)
}

func TestHashZip_MatchesDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"Info.dat":         v2Info,
		"Expert.dat":       "expert",
		"ExpertPlus.dat":   "expertplus",
		"OneSaberHard.dat": "onesaber",
	})
	var buf bytes.Buffer
	require.NoError(t, archive.CreateZip(context.Background(), dir, &buf))

	fromDir, err := HashDirectory(dir)
	require.NoError(t, err)
	fromZip, err := HashZip(context.Background(), bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, fromDir, fromZip)
}

func TestHashDirectories(t *testing.T) {
	var dirs []string
	expected := make(map[string]string)
	for i := 0; i < 8; i++ {
		diff := fmt.Sprintf("expert-%d", i)
		dir := writeFiles(t, map[string]string{"info.dat": v2Info, "Expert.dat": diff})
		dirs = append(dirs, dir)
		expected[dir] = sha1Upper(v2Info, diff)
	}
	empty := writeFiles(t, map[string]string{"readme.txt": "no manifest"})
	broken := writeFiles(t, map[string]string{"info.dat": "]"})
	dirs = append(dirs, empty, broken)

	hashes, err := HashDirectories(context.Background(), dirs)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), broken)
	assert.Equal(t, expected, hashes)
}

func TestReadInfo(t *testing.T) {
	dir := writeFiles(t, map[string]string{"INFO.DAT": v4Info})

	info, err := ReadInfo(os.DirFS(dir))
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "New Song", info.SongName)
	assert.Equal(t, "A, B", info.Mapper)
	assert.Equal(t, []string{"Easy.dat", "Lightshow.dat", "Hard.dat", "Lightshow.dat"}, info.Files)

	none, err := ReadInfo(os.DirFS(t.TempDir()))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestParseInfo_VersionGate(t *testing.T) {
	info, err := ParseInfo([]byte(`{"version":"3.2.0","_version":"2.0.0","_songName":"Old"}`))
	require.NoError(t, err)
	assert.Equal(t, "Old", info.SongName)

	info, err = ParseInfo([]byte(`{"version":"not-a-version","_songName":"Fallback"}`))
	require.NoError(t, err)
	assert.Equal(t, "Fallback", info.SongName)
}
