// Package config handles loading and saving propdeck configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/propdeck/config.yaml
//   - Data:    ~/.local/share/propdeck/ (fixtures, exports)
//   - State:   ~/.local/state/propdeck/ (odds cache database)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Feed represents a registered odds feed in the config. A feed is either a
// remote endpoint or a local fixture file.
type Feed struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url,omitempty"`
	Fixture string `yaml:"fixture,omitempty"`
	League  string `yaml:"league,omitempty"`
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultView string `yaml:"default_view,omitempty"` // grid, split
	Headless    bool   `yaml:"headless,omitempty"`     // Compact header mode
	DetailWidth int    `yaml:"detail_width,omitempty"` // Detail pane width in cells
}

// FetchConfig controls the paginated feed client.
type FetchConfig struct {
	PageSize     int `yaml:"page_size,omitempty"`
	PageRetries  int `yaml:"page_retries,omitempty"`
	RetryWaitMS  int `yaml:"retry_wait_ms,omitempty"`
	CacheTTLMins int `yaml:"cache_ttl_mins,omitempty"`
}

// TimingConfig overrides the debounce and restore windows. Zero means the
// built-in default.
type TimingConfig struct {
	FilterCommitMS  int `yaml:"filter_commit_ms,omitempty"`
	RangeCommitMS   int `yaml:"range_commit_ms,omitempty"`
	SortedRestoreMS int `yaml:"sorted_restore_ms,omitempty"`
}

// Config is the top-level configuration for propdeck.
type Config struct {
	Feeds     []Feed         `yaml:"feeds,omitempty"`
	Favorites map[int]string `yaml:"favorites,omitempty"` // Number key (1-9) -> feed name
	UI        UIConfig       `yaml:"ui,omitempty"`
	Fetch     FetchConfig    `yaml:"fetch,omitempty"`
	Timing    TimingConfig   `yaml:"timing,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Favorites: make(map[int]string),
		UI: UIConfig{
			DefaultView: "grid",
			DetailWidth: 60,
		},
		Fetch: FetchConfig{
			PageSize:     1000,
			PageRetries:  3,
			RetryWaitMS:  500,
			CacheTTLMins: 15,
		},
	}
}

// CacheTTL returns the configured cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	if c.Fetch.CacheTTLMins <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Fetch.CacheTTLMins) * time.Minute
}

// ConfigDir returns the XDG config directory for propdeck.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "propdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "propdeck")
}

// DataDir returns the XDG data directory for propdeck.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "propdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "propdeck")
}

// StateDir returns the XDG state directory for propdeck.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "propdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "propdeck")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// CachePath returns the full path to the persistent odds cache database.
func CachePath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "odds-cache.db")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	// Ensure favorites map is initialized
	if cfg.Favorites == nil {
		cfg.Favorites = make(map[int]string)
	}

	// Expand ~ in fixture paths
	for i := range cfg.Feeds {
		cfg.Feeds[i].Fixture = expandHome(cfg.Feeds[i].Fixture)
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindFeed returns the feed with the given name, or nil.
func (c Config) FindFeed(name string) *Feed {
	for i := range c.Feeds {
		if strings.EqualFold(c.Feeds[i].Name, name) {
			return &c.Feeds[i]
		}
	}
	return nil
}

// FavoriteFeed returns the feed assigned to number key n (1-9), or nil.
func (c Config) FavoriteFeed(n int) *Feed {
	name, ok := c.Favorites[n]
	if !ok {
		return nil
	}
	return c.FindFeed(name)
}

// SetFavorite assigns a feed name to a number key (1-9).
func (c *Config) SetFavorite(n int, feedName string) {
	if c.Favorites == nil {
		c.Favorites = make(map[int]string)
	}
	if feedName == "" {
		delete(c.Favorites, n)
	} else {
		c.Favorites[n] = feedName
	}
}

// FeedFavoriteNumber returns the favorite number (1-9) for a feed name, or 0 if not favorited.
func (c Config) FeedFavoriteNumber(name string) int {
	for n, fname := range c.Favorites {
		if strings.EqualFold(fname, name) {
			return n
		}
	}
	return 0
}

// Window converts a millisecond override into a duration, falling back when
// unset.
func Window(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
