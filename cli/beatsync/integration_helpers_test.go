//go:build integration

package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cperrin88/beatsync/test/testutil"
)

// env is a throwaway beatsync installation.
type env struct {
	dir       string
	config    string
	songsDir  string
	history   string
	playlists string
	hooks     string
	server    *testutil.ProviderServer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	return &env{
		dir:       dir,
		config:    filepath.Join(dir, "config.yaml"),
		songsDir:  filepath.Join(dir, "CustomLevels"),
		history:   filepath.Join(dir, "history.json"),
		playlists: filepath.Join(dir, "Playlists"),
		hooks:     filepath.Join(dir, "hooks"),
		server:    testutil.NewProviderServer(t),
	}
}

// writeConfig writes a config with one list feed holding hashes.
func (e *env) writeConfig(t *testing.T, feed string, hashes ...string) {
	t.Helper()
	var songs strings.Builder
	for _, h := range hashes {
		fmt.Fprintf(&songs, "      - hash: %s\n", h)
	}
	content := fmt.Sprintf(`settings:
  songs_dir: %s
  history_path: %s
  playlists_dir: %s
  hooks_dir: %s
  beatsaver_url: %s
  http_retries: 0
  color_output: false
feeds:
  - name: %s
    kind: list
    songs:
%s`, e.songsDir, e.history, e.playlists, e.hooks, e.server.URL, feed, songs.String())
	e.config = testutil.SetupTestConfig(t, content)
}

// addBeatmap serves a generated beatmap and returns its hash.
func (e *env) addBeatmap(t *testing.T, name, seed string) string {
	t.Helper()
	files := testutil.BeatmapFiles(name, "Mapper", seed)
	hash := testutil.BeatmapHash(t, files)
	e.server.AddHash(hash, testutil.BeatmapZip(t, files))
	return hash
}

// run executes the CLI with the env's config and returns stdout.
func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return execute(t, append([]string{"--config", e.config}, args...)...)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}
