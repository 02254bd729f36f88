package download

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/model"
)

// DefaultBaseURL is the beatmap provider API root.
const DefaultBaseURL = "https://beatsaver.com/api"

// Provider resolves download URLs for songs.
type Provider struct {
	base *url.URL
}

// NewProvider parses base, which must be an absolute http(s) URL.
func NewProvider(base string) (*Provider, error) {
	if strings.TrimSpace(base) == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(base), "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid provider URL %q: %w", base, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("provider URL %q must be absolute http(s)", base)
	}
	return &Provider{base: u}, nil
}

// DefaultProvider returns the provider for DefaultBaseURL.
func DefaultProvider() *Provider {
	p, _ := NewProvider(DefaultBaseURL)
	return p
}

// BaseURL returns the provider root.
func (p *Provider) BaseURL() string {
	return p.base.String()
}

// URLFor returns {base}/download/hash/{hash}, or {base}/download/key/{key}
// when the song has no hash. Identifiers are lower-cased.
func (p *Provider) URLFor(song model.Song) (*url.URL, error) {
	var kind, id string
	switch {
	case strings.TrimSpace(song.Hash) != "":
		kind, id = "hash", strings.ToLower(strings.TrimSpace(song.Hash))
	case strings.TrimSpace(song.Key) != "":
		kind, id = "key", strings.ToLower(strings.TrimSpace(song.Key))
	default:
		return nil, errors.ErrInvalidRequest
	}
	return p.base.JoinPath("download", kind, id), nil
}
