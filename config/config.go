// Package config holds runtime configuration for the station directory
// tool. Values come from defaults, an optional YAML file, and CLI flags, in
// that order.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	jptransit "github.com/anhlt/jp-transit-search"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "jptransit"

	// DefaultBaseURL is the root of the source transit site.
	DefaultBaseURL = "https://transit.yahoo.co.jp"

	// DefaultTimeout applies to each page fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultLineDelay and DefaultDetailDelay pace requests against the
	// source site. Line listings are heavier pages, so they get the longer
	// interval.
	DefaultLineDelay   = 1 * time.Second
	DefaultDetailDelay = 500 * time.Millisecond

	// DefaultBatchSize is the number of stations buffered between
	// checkpoint writes. Smaller batches lose less work on a crash but
	// write more often.
	DefaultBatchSize = 50

	// DefaultFuzzyThreshold is the minimum edit-distance score (0-100)
	// for a fuzzy search hit.
	DefaultFuzzyThreshold = 60

	// DefaultConfigFile is the config file name looked up under the XDG
	// config directory.
	DefaultConfigFile = "config.yml"
)

// Config holds every tunable of the crawler and the search CLI. A single
// flat struct keeps flag and file binding simple.
type Config struct {
	// BaseURL is the root of the source site.
	BaseURL string `yaml:"baseURL" validate:"required,url"`

	// Timeout is the per-fetch timeout.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	// LineDelay is the minimum interval between line page fetches;
	// DetailDelay between station detail fetches. Zero disables pacing.
	LineDelay   time.Duration `yaml:"lineDelay" validate:"gte=0"`
	DetailDelay time.Duration `yaml:"detailDelay" validate:"gte=0"`

	// BatchSize is the checkpoint interval in stations.
	BatchSize int `yaml:"batchSize" validate:"gt=0"`

	// MaxLinesPerPrefecture caps how many lines are walked per prefecture.
	// Zero means no cap.
	MaxLinesPerPrefecture int `yaml:"maxLinesPerPrefecture" validate:"gte=0"`

	// FuzzyThreshold is the minimum fuzzy search score to report.
	FuzzyThreshold int `yaml:"fuzzyThreshold" validate:"gte=0,lte=100"`

	// DataDir holds the station store and the crawl state file.
	// Defaults to the XDG data directory.
	DataDir string `yaml:"dataDir" validate:"required"`

	// UseSQLite stores stations in a SQLite database instead of the CSV
	// file.
	UseSQLite bool `yaml:"useSQLite"`

	// Verbose enables debug-level log output.
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        DefaultTimeout,
		LineDelay:      DefaultLineDelay,
		DetailDelay:    DefaultDetailDelay,
		BatchSize:      DefaultBatchSize,
		FuzzyThreshold: DefaultFuzzyThreshold,
		DataDir:        XDGDataDir(),
	}
}

// Validate checks the configuration and returns an EINVALID error naming
// the first offending field.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return jptransit.Errorf(jptransit.EINVALID, "invalid config: field %s failed rule %q", errs[0].Field(), errs[0].Tag())
		}
		return jptransit.Errorf(jptransit.EINVALID, "invalid config: %v", err)
	}
	return nil
}

// StationsCSVPath returns the CSV station store path.
func (c *Config) StationsCSVPath() string {
	return filepath.Join(c.DataDir, "stations.csv")
}

// DatabasePath returns the SQLite station store path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "stations.db")
}

// StateFilePath returns the crawl resume state path.
func (c *Config) StateFilePath() string {
	return filepath.Join(c.DataDir, "crawl_state.json")
}

// XDGDataDir returns the XDG data directory for the tool,
// e.g. ~/.local/share/jptransit on Linux.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the tool,
// e.g. ~/.config/jptransit on Linux.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Load builds a Config from defaults overlaid with the YAML file at path.
// An empty path falls back to DefaultConfigFile under the XDG config
// directory; a missing file there is not an error. The result is validated.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(XDGConfigDir(), DefaultConfigFile)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, jptransit.Errorf(jptransit.EINVALID, "config file %s: %v", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; defaults apply.
	default:
		return nil, jptransit.Errorf(jptransit.EINVALID, "config file %s: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
