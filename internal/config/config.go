// Package config handles hueaudit configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level hueaudit configuration.
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Pages    []PageConfig   `yaml:"pages"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Sinks    []SinkConfig   `yaml:"sinks"`
	Store    StoreConfig    `yaml:"store"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	MemoryLimit      int64         `yaml:"memory_limit"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	NavTimeout       time.Duration `yaml:"nav_timeout"`
	ScreenshotWait   time.Duration `yaml:"screenshot_wait"`
}

// PageConfig defines a page to audit.
type PageConfig struct {
	ID         string `yaml:"id"`
	URL        string `yaml:"url"`
	CrawlDepth int    `yaml:"crawl_depth"`
	MaxPages   int    `yaml:"max_pages"`
	Platform   string `yaml:"platform"` // squarespace71 | squarespace70 | wordpress | generic | auto
}

// AnalysisConfig exposes the perceptual tuning knobs. The defaults were
// settled against real Squarespace and WordPress sites; change them with
// care, the merge threshold in particular governs how aggressively near
// duplicate colors collapse into one catalogue entry.
type AnalysisConfig struct {
	MergeThreshold float64 `yaml:"merge_threshold"`
	PixelAgreement float64 `yaml:"pixel_agreement"`
	Grid           int     `yaml:"grid"`
	HighStakesGrid int     `yaml:"high_stakes_grid"`
	MinInBounds    float64 `yaml:"min_in_bounds"`
	MaxElements    int     `yaml:"max_elements"`
	Parallelism    int     `yaml:"parallelism"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type    string        `yaml:"type"` // stdout | webhook
	URL     string        `yaml:"url"`  // for webhook
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, used by
// the single-URL CLI path where no file is given.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero values in place.
func (c *Config) ApplyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 45 * time.Second
	}
	if c.Browser.ScreenshotWait <= 0 {
		c.Browser.ScreenshotWait = 10 * time.Second
	}
	if c.Analysis.MergeThreshold <= 0 {
		c.Analysis.MergeThreshold = 2.3
	}
	if c.Analysis.PixelAgreement <= 0 {
		c.Analysis.PixelAgreement = 0.70
	}
	if c.Analysis.Grid <= 0 {
		c.Analysis.Grid = 5
	}
	if c.Analysis.HighStakesGrid <= 0 {
		c.Analysis.HighStakesGrid = 8
	}
	if c.Analysis.MinInBounds <= 0 {
		c.Analysis.MinInBounds = 0.5
	}
	if c.Analysis.MaxElements <= 0 {
		c.Analysis.MaxElements = 2000
	}
	if c.Analysis.Parallelism <= 0 {
		c.Analysis.Parallelism = 8
	}
	if c.Store.Path == "" {
		c.Store.Path = "hueaudit.db"
	}
	for i := range c.Pages {
		if c.Pages[i].Platform == "" {
			c.Pages[i].Platform = "auto"
		}
		if c.Pages[i].MaxPages <= 0 {
			c.Pages[i].MaxPages = 20
		}
	}
	for i := range c.Sinks {
		if c.Sinks[i].Timeout <= 0 {
			c.Sinks[i].Timeout = 10 * time.Second
		}
	}
}
