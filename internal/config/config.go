package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CalendarConfig describes one subscribed calendar feed (typically one room's
// calendar).
type CalendarConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the report API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone reports are computed in
	// (e.g. "Europe/Bucharest").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron schedules the yearly-aggregate cache refresh
	// (e.g. "0 3 * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Calendars is the list of subscribed calendar feeds.
	Calendars []CalendarConfig `yaml:"calendars" json:"calendars"`

	// RehearsalMarker is the title marker for rehearsal-room bookings,
	// compared diacritics-stripped and lower-cased ("sala repetitie"
	// matches "Sală repetiție ...").
	RehearsalMarker string `yaml:"rehearsal_marker" json:"rehearsal_marker"`

	// ExcludeWords drops rehearsal events whose title contains any of these
	// words. Mutable at runtime through the API and persisted here.
	ExcludeWords []string `yaml:"exclude_words" json:"exclude_words"`

	// RentalInstruments are the keywords tracked as billable instrument
	// rentals in rehearsal reports.
	RentalInstruments []string `yaml:"rental_instruments" json:"rental_instruments"`

	// CacheDir is the base directory for the feed cache and the aggregate
	// cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "Europe/Bucharest",
		RefreshCron:       "0 3 * * *",
		Calendars:         []CalendarConfig{},
		RehearsalMarker:   "sala repetitie",
		ExcludeWords:      []string{},
		RentalInstruments: []string{"chitara", "tobe", "clape", "bass"},
		CacheDir:          "/var/lib/lessoncal",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Bucharest"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 3 * * *"
	}
	if c.Calendars == nil {
		c.Calendars = []CalendarConfig{}
	}
	if c.RehearsalMarker == "" {
		c.RehearsalMarker = "sala repetitie"
	}
	if c.ExcludeWords == nil {
		c.ExcludeWords = []string{}
	}
	if c.RentalInstruments == nil {
		c.RentalInstruments = []string{"chitara", "tobe", "clape", "bass"}
	}
	if c.CacheDir == "" {
		c.CacheDir = "/var/lib/lessoncal"
	}
}

// FeedCacheDir is where the calendar fetcher keeps its HTTP cache.
func (c *Config) FeedCacheDir() string {
	return filepath.Join(c.CacheDir, "feed-cache")
}

// AggregateCacheDir is where yearly aggregates are persisted.
func (c *Config) AggregateCacheDir() string {
	return filepath.Join(c.CacheDir, "aggregates")
}

// Load loads configuration from the given YAML path. If the file does not
// exist, a default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".lessoncal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save, so
// handlers mutating config (e.g. exclude words) can persist in one call.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
