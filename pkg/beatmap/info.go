// Package beatmap parses beatmap manifests and computes content hashes.
package beatmap

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/hashicorp/go-version"
)

// InfoFileName is the manifest every beatmap carries at its root.
const InfoFileName = "info.dat"

// v4Layout is the first manifest version with the flat difficulty list.
var v4Layout = version.Must(version.NewVersion("4.0.0"))

// Info is the subset of a manifest the pipeline needs, normalised across
// manifest versions.
type Info struct {
	Version  string
	SongName string
	Mapper   string
	// Files are the difficulty data files in declared order.
	Files []string
}

type infoV2 struct {
	Version        string `json:"_version"`
	SongName       string `json:"_songName"`
	LevelAuthor    string `json:"_levelAuthorName"`
	DifficultySets []struct {
		Characteristic string `json:"_beatmapCharacteristicName"`
		Difficulties   []struct {
			Difficulty string `json:"_difficulty"`
			FileName   string `json:"_beatmapFilename"`
		} `json:"_difficultyBeatmaps"`
	} `json:"_difficultyBeatmapSets"`
}

type infoV4 struct {
	Version string `json:"version"`
	Song    struct {
		Title string `json:"title"`
	} `json:"song"`
	DifficultyBeatmaps []struct {
		Characteristic string `json:"characteristic"`
		Difficulty     string `json:"difficulty"`
		Authors        struct {
			Mappers []string `json:"mappers"`
		} `json:"beatmapAuthors"`
		BeatmapDataFilename   string `json:"beatmapDataFilename"`
		LightshowDataFilename string `json:"lightshowDataFilename"`
	} `json:"difficultyBeatmaps"`
}

// ParseInfo decodes manifest bytes of either layout.
func ParseInfo(data []byte) (*Info, error) {
	var probe struct {
		V2 string `json:"_version"`
		V4 string `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	if isV4(probe.V4) {
		return parseV4(data)
	}
	return parseV2(data)
}

func isV4(raw string) bool {
	if raw == "" {
		return false
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return false
	}
	return v.GreaterThanOrEqual(v4Layout)
}

func parseV2(data []byte) (*Info, error) {
	var raw infoV2
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	info := &Info{Version: raw.Version, SongName: raw.SongName, Mapper: raw.LevelAuthor}
	for _, set := range raw.DifficultySets {
		for _, d := range set.Difficulties {
			if d.FileName != "" {
				info.Files = append(info.Files, d.FileName)
			}
		}
	}
	return info, nil
}

func parseV4(data []byte) (*Info, error) {
	var raw infoV4
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	info := &Info{Version: raw.Version, SongName: raw.Song.Title}
	for _, d := range raw.DifficultyBeatmaps {
		if info.Mapper == "" && len(d.Authors.Mappers) > 0 {
			info.Mapper = strings.Join(d.Authors.Mappers, ", ")
		}
		if d.BeatmapDataFilename != "" {
			info.Files = append(info.Files, d.BeatmapDataFilename)
		}
		if d.LightshowDataFilename != "" {
			info.Files = append(info.Files, d.LightshowDataFilename)
		}
	}
	return info, nil
}

// findInfo returns the manifest's name at the root of fsys, matched
// case-insensitively, or "" when there is none.
func findInfo(fsys fs.FS) (string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), InfoFileName) {
			return e.Name(), nil
		}
	}
	return "", nil
}

// ReadInfo parses the manifest at the root of fsys. It returns nil and no
// error when fsys has no manifest.
func ReadInfo(fsys fs.FS) (*Info, error) {
	name, err := findInfo(fsys)
	if err != nil || name == "" {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return ParseInfo(data)
}
