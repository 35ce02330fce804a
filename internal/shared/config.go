package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify  SpotifyConfig    `toml:"spotify"`
	Todo     TodoConfig       `toml:"todo"`
	Personal []PlaylistConfig `toml:"personal" validate:"unique=Name,dive"`
	Filter   FilterConfig     `toml:"filter"`
	Database DatabaseConfig   `toml:"database"`
	Metrics  MetricsConfig    `toml:"metrics"`
	Server   ServerConfig     `toml:"server"`
}

// SpotifyConfig contains Spotify API client settings.
type SpotifyConfig struct {
	CredentialsFile string  `toml:"credentials_file"`
	PageLimit       int     `toml:"page_limit" validate:"gte=1,lte=100"`
	MaxPages        int     `toml:"max_pages" validate:"gte=1"`
	RateLimit       float64 `toml:"rate_limit" validate:"gt=0"`
	MaxRetries      int     `toml:"max_retries" validate:"gte=0,lte=10"`
	BackoffMS       int     `toml:"backoff_ms" validate:"gte=0"`
}

// TodoConfig describes the staging playlist and its retention thresholds (days).
type TodoConfig struct {
	PlaylistID          string   `toml:"playlist_id" validate:"required"`
	PlaylistName        string   `toml:"playlist_name"`
	PhaseOneDays        int      `toml:"phase_one_days" validate:"gte=0"`
	PhaseTwoDays        int      `toml:"phase_two_days" validate:"gtfield=PhaseOneDays"`
	PhaseThreeDays      int      `toml:"phase_three_days" validate:"gtfield=PhaseTwoDays"`
	ToleratedMissingIDs []string `toml:"tolerated_missing_ids" validate:"dive,required"`
}

// PlaylistConfig references a personal playlist.
type PlaylistConfig struct {
	ID   string `toml:"id" validate:"required"`
	Name string `toml:"name" validate:"required"`
}

// FilterConfig contains the genre and user rules for personal playlists.
type FilterConfig struct {
	PlaylistMatch  []string `toml:"playlist_match" validate:"dive,required"`
	AllowGenres    []string `toml:"allow_genres" validate:"dive,required"`
	DenyGenres     []string `toml:"deny_genres" validate:"dive,required"`
	ToleratedUsers []string `toml:"tolerated_users" validate:"dive,required"`
}

// DatabaseConfig contains audit database settings. An empty path disables the audit log.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// ServerConfig contains the OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Personal = nil
	config.Filter = FilterConfig{}
	config.Todo.PlaylistID = ""
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks field constraints, including T1 < T2 < T3.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// CurationTargets returns the personal playlists the genre/user filter applies to.
func (c *Config) CurationTargets() []PlaylistConfig {
	if len(c.Filter.PlaylistMatch) == 0 {
		return c.Personal
	}

	var targets []PlaylistConfig
	for _, p := range c.Personal {
		for _, sub := range c.Filter.PlaylistMatch {
			if strings.Contains(p.Name, sub) {
				targets = append(targets, p)
				break
			}
		}
	}
	return targets
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
