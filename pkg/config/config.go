// Package config loads, validates and saves the beatsync configuration file.
// Settings that are not in the file fall back to defaults derived from the
// platform's data directory.
package config

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"gopkg.in/yaml.v3"

	"github.com/cperrin88/beatsync/pkg/download"
	"github.com/cperrin88/beatsync/pkg/errors"
	"github.com/cperrin88/beatsync/pkg/fsutil"
	bshttp "github.com/cperrin88/beatsync/pkg/http"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings      `yaml:"settings"`
	Feeds    []*FeedConfig `yaml:"feeds"`
}

// Settings represents general application settings.
type Settings struct {
	// Paths
	SongsDir     string `yaml:"songs_dir"`
	HistoryPath  string `yaml:"history_path"`
	PlaylistsDir string `yaml:"playlists_dir"`
	DownloadDir  string `yaml:"download_dir,omitempty"` // empty keeps downloads in memory
	HooksDir     string `yaml:"hooks_dir"`

	// Network settings
	MaxConcurrentDownloads int           `yaml:"max_concurrent_downloads"`
	HTTPTimeout            time.Duration `yaml:"http_timeout"`
	HTTPRetries            int           `yaml:"http_retries"`
	UserAgent              string        `yaml:"user_agent"`
	BeatSaverURL           string        `yaml:"beatsaver_url"`

	// Transfer settings
	OverwriteTarget    bool `yaml:"overwrite_target"`
	RejectHashMismatch bool `yaml:"reject_hash_mismatch"`

	// Output settings
	LogLevel    string `yaml:"log_level"` // debug, info, warn, error
	ColorOutput bool   `yaml:"color_output"`
}

// Default configuration values.
const (
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultHTTPRetries   = 3
	DefaultMaxConcurrent = download.DefaultConcurrency
	DefaultLogLevel      = "info"

	// MaxConcurrentLimit caps max_concurrent_downloads.
	MaxConcurrentLimit = 16

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// LogLevels lists the accepted log levels.
var LogLevels = []string{"debug", "info", "warn", "error"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dataDir, err := fsutil.GetDataDir()
	if err != nil {
		// Fallback to current directory if we can't determine the data dir
		dataDir = "."
	}
	hooksDir, err := fsutil.GetHooksDir()
	if err != nil {
		hooksDir = filepath.Join(dataDir, "hooks")
	}
	historyPath, err := fsutil.GetHistoryPath()
	if err != nil {
		historyPath = filepath.Join(dataDir, fsutil.HistoryFileName)
	}
	playlistsDir, err := fsutil.GetPlaylistsDir()
	if err != nil {
		playlistsDir = filepath.Join(dataDir, "Playlists")
	}

	return &Config{
		Settings: Settings{
			SongsDir:               filepath.Join(dataDir, "CustomLevels"),
			HistoryPath:            historyPath,
			PlaylistsDir:           playlistsDir,
			HooksDir:               hooksDir,
			MaxConcurrentDownloads: DefaultMaxConcurrent,
			HTTPTimeout:            DefaultHTTPTimeout,
			HTTPRetries:            DefaultHTTPRetries,
			UserAgent:              bshttp.DefaultUserAgent,
			BeatSaverURL:           download.DefaultBaseURL,
			LogLevel:               DefaultLogLevel,
			ColorOutput:            true,
		},
		Feeds: []*FeedConfig{},
	}
}

// applyDefaults fills settings the file left empty.
func (c *Config) applyDefaults() {
	def := DefaultConfig().Settings
	s := &c.Settings
	if s.SongsDir == "" {
		s.SongsDir = def.SongsDir
	}
	if s.HistoryPath == "" {
		s.HistoryPath = def.HistoryPath
	}
	if s.PlaylistsDir == "" {
		s.PlaylistsDir = def.PlaylistsDir
	}
	if s.HooksDir == "" {
		s.HooksDir = def.HooksDir
	}
	if s.MaxConcurrentDownloads == 0 {
		s.MaxConcurrentDownloads = def.MaxConcurrentDownloads
	}
	if s.HTTPTimeout == 0 {
		s.HTTPTimeout = def.HTTPTimeout
	}
	if s.UserAgent == "" {
		s.UserAgent = def.UserAgent
	}
	if s.BeatSaverURL == "" {
		s.BeatSaverURL = def.BeatSaverURL
	}
	s.LogLevel = strings.ToLower(strings.TrimSpace(s.LogLevel))
	if s.LogLevel == "" {
		s.LogLevel = def.LogLevel
	}
	if c.Feeds == nil {
		c.Feeds = []*FeedConfig{}
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	// Settings omitted from the file keep their default values
	config.Settings.ColorOutput = true
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file, replacing it atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}

	if err := fsutil.WriteFileAtomic(absPath, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var b strings.Builder
	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return []byte(b.String()), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}

	names := make(map[string]bool, len(c.Feeds))
	for i, f := range c.Feeds {
		if f == nil {
			return errors.Wrapf(errors.ErrConfigValidation, "feeds[%d] is empty", i)
		}
		if err := f.Validate(); err != nil {
			return errors.Wrapf(err, "feeds[%d]", i)
		}
		if names[f.Name] {
			return errors.Wrapf(errors.ErrConfigValidation, "duplicate feed name %q", f.Name)
		}
		names[f.Name] = true
	}
	return nil
}

// Validate checks the settings.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.SongsDir, validation.Required),
		validation.Field(&s.HistoryPath, validation.Required),
		validation.Field(&s.PlaylistsDir, validation.Required),
		validation.Field(&s.MaxConcurrentDownloads, validation.Min(1), validation.Max(MaxConcurrentLimit)),
		validation.Field(&s.HTTPTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.HTTPRetries, validation.Min(0)),
		validation.Field(&s.BeatSaverURL, validation.Required, validation.By(httpURL)),
		validation.Field(&s.LogLevel, validation.In(toInterfaces(LogLevels)...)),
	)
}

// GetFeed returns the feed called name.
func (c *Config) GetFeed(name string) *FeedConfig {
	for _, f := range c.Feeds {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EnabledFeeds returns the resolved configs of all enabled feeds.
func (c *Config) EnabledFeeds() []FeedConfig {
	out := make([]FeedConfig, 0, len(c.Feeds))
	for _, f := range c.Feeds {
		if r := f.Resolved(); r.IsEnabled() {
			out = append(out, r)
		}
	}
	return out
}

func httpURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(errors.ErrConfigValidation, "%q is not an http(s) URL", s)
	}
	return nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
