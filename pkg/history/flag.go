package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Flag records the outcome of the last attempt for a beatmap.
type Flag int

const (
	FlagNone Flag = iota
	FlagDownloaded
	FlagDeleted
	FlagMissing
	FlagPreExisting
	FlagError
	FlagBeatSaverNotFound
)

var flagNames = map[Flag]string{
	FlagNone:              "None",
	FlagDownloaded:        "Downloaded",
	FlagDeleted:           "Deleted",
	FlagMissing:           "Missing",
	FlagPreExisting:       "PreExisting",
	FlagError:             "Error",
	FlagBeatSaverNotFound: "BeatSaverNotFound",
}

// Flags lists every flag in declaration order.
func Flags() []Flag {
	return []Flag{FlagNone, FlagDownloaded, FlagDeleted, FlagMissing, FlagPreExisting, FlagError, FlagBeatSaverNotFound}
}

func (f Flag) String() string {
	if name, ok := flagNames[f]; ok {
		return name
	}
	return "Flag(" + strconv.Itoa(int(f)) + ")"
}

// Retryable reports whether a song with this flag should be attempted again.
func (f Flag) Retryable() bool {
	return f == FlagNone || f == FlagError
}

// ParseFlag accepts a flag name in any case or its integer value.
func ParseFlag(s string) (Flag, error) {
	s = strings.TrimSpace(s)
	for f, name := range flagNames {
		if strings.EqualFold(name, s) {
			return f, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := flagNames[Flag(n)]; ok {
			return Flag(n), nil
		}
	}
	return FlagNone, fmt.Errorf("unknown history flag %q", s)
}

// MarshalText writes the symbolic name.
func (f Flag) MarshalText() ([]byte, error) {
	if _, ok := flagNames[f]; !ok {
		return nil, fmt.Errorf("unknown history flag %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText reads a symbolic name or an integer.
func (f *Flag) UnmarshalText(text []byte) error {
	parsed, err := ParseFlag(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// UnmarshalJSON also accepts bare integers, which older history files contain.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return f.UnmarshalText([]byte(s))
	}
	return f.UnmarshalText(data)
}
