// Package model provides the song descriptor that flows from feeds through
// the download pipeline.
package model

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/cperrin88/beatsync/pkg/errors"
)

// HashLength is the number of hex characters in a content hash.
const HashLength = 40

var (
	hashPattern = regexp.MustCompile(`^[0-9A-F]{40}$`)
	keyPattern  = regexp.MustCompile(`^[0-9a-fA-F]{1,8}$`)
)

// Song describes a beatmap offered by a feed. It is immutable once received.
type Song struct {
	// Hash is the uppercase content hash. It is the primary identity.
	Hash string `json:"hash,omitempty" yaml:"hash,omitempty"`
	// Key is the provider's short id, used when no hash is known.
	Key    string `json:"key,omitempty" yaml:"key,omitempty"`
	Name   string `json:"songName,omitempty" yaml:"name,omitempty"`
	Mapper string `json:"levelAuthorName,omitempty" yaml:"mapper,omitempty"`
	// Source names the feed that produced the song.
	Source string `json:"-" yaml:"-"`
}

// NewSong returns a song with a canonical hash and key.
func NewSong(hash, key, name, mapper string) Song {
	return Song{
		Hash:   NormalizeHash(hash),
		Key:    NormalizeKey(key),
		Name:   strings.TrimSpace(name),
		Mapper: strings.TrimSpace(mapper),
	}
}

// NormalizeHash trims and uppercases a content hash.
func NormalizeHash(hash string) string {
	return strings.ToUpper(strings.TrimSpace(hash))
}

// NormalizeKey trims and lowercases a provider key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Canonical returns a copy of s with normalised hash and key.
func (s Song) Canonical() Song {
	s.Hash = NormalizeHash(s.Hash)
	s.Key = NormalizeKey(s.Key)
	return s
}

// WithSource returns a copy of s tagged with the feed name.
func (s Song) WithSource(source string) Song {
	s.Source = source
	return s
}

// Validate checks the hash and key formats. Both may be empty.
func (s Song) Validate() error {
	c := s.Canonical()
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Hash, validation.Match(hashPattern)),
		validation.Field(&c.Key, validation.Match(keyPattern)),
	)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validation.Errors); ok {
		if _, bad := errs["hash"]; bad {
			return errors.Wrapf(errors.ErrInvalidHash, "%q", s.Hash)
		}
		return errors.Wrapf(errors.ErrInvalidKey, "%q", s.Key)
	}
	return err
}

// HasIdentity reports whether the song can be requested from a provider at all.
func (s Song) HasIdentity() bool {
	return strings.TrimSpace(s.Hash) != "" || strings.TrimSpace(s.Key) != ""
}

// Identity is the de-duplication key: the hash when known, otherwise the key.
func (s Song) Identity() string {
	if h := NormalizeHash(s.Hash); h != "" {
		return h
	}
	if k := NormalizeKey(s.Key); k != "" {
		return "key:" + k
	}
	return ""
}

// String renders the song the way history entries display it.
func (s Song) String() string {
	name := s.Name
	if name == "" {
		name = "Unknown"
	}
	if s.Mapper != "" {
		name = fmt.Sprintf("%s - %s", name, s.Mapper)
	}
	if s.Key != "" {
		return fmt.Sprintf("(%s) %s", NormalizeKey(s.Key), name)
	}
	return name
}
