// Package config handles citefix configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents configuration stored in ~/.config/citefix/config.yml.
type Config struct {
	Threshold          float64      `yaml:"threshold,omitempty"`            // Duplicate similarity ratio
	MinParagraphLength int          `yaml:"min_paragraph_length,omitempty"` // Shortest paragraph reported, in characters
	Authors            []string     `yaml:"authors,omitempty"`              // Extra short surnames that are never element symbols
	IndexPath          string       `yaml:"index_path,omitempty"`           // SQLite index location
	Review             ReviewConfig `yaml:"review,omitempty"`
}

// ReviewConfig configures the external duplicate reviewer.
type ReviewConfig struct {
	Command   string        `yaml:"command,omitempty"`
	Model     string        `yaml:"model,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`    // Per call
	ChunkSize int           `yaml:"chunk_size,omitempty"` // Candidate pairs per call
	Rate      float64       `yaml:"rate,omitempty"`       // Calls per second
}

// Defaults.
const (
	DefaultThreshold          = 0.90
	DefaultMinParagraphLength = 30
	DefaultReviewCommand      = "claude"
	DefaultReviewModel        = "haiku"
	DefaultReviewTimeout      = 2 * time.Minute
	DefaultReviewChunkSize    = 25
	DefaultReviewRate         = 0.5
	DefaultIndexFile          = "citefix.db"
)

// Environment variables that override the file.
const (
	EnvReviewModel   = "CITEFIX_REVIEW_MODEL"
	EnvReviewCommand = "CITEFIX_REVIEW_COMMAND"
)

// Default returns a config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.MinParagraphLength == 0 {
		c.MinParagraphLength = DefaultMinParagraphLength
	}
	if c.Review.Command == "" {
		c.Review.Command = DefaultReviewCommand
	}
	if c.Review.Model == "" {
		c.Review.Model = DefaultReviewModel
	}
	if c.Review.Timeout == 0 {
		c.Review.Timeout = DefaultReviewTimeout
	}
	if c.Review.ChunkSize == 0 {
		c.Review.ChunkSize = DefaultReviewChunkSize
	}
	if c.Review.Rate == 0 {
		c.Review.Rate = DefaultReviewRate
	}
	if c.IndexPath == "" {
		c.IndexPath = defaultIndexPath()
	}
	c.IndexPath = ExpandPath(c.IndexPath)
}

// applyEnv overrides reviewer settings from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvReviewModel); v != "" {
		c.Review.Model = v
	}
	if v := os.Getenv(EnvReviewCommand); v != "" {
		c.Review.Command = v
	}
}

// Validate checks that values are in range.
func (c *Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("invalid threshold: %v (must be in (0, 1])", c.Threshold)
	}
	if c.MinParagraphLength < 0 {
		return fmt.Errorf("invalid min_paragraph_length: %d", c.MinParagraphLength)
	}
	if c.Review.Timeout < 0 {
		return fmt.Errorf("invalid review.timeout: %s", c.Review.Timeout)
	}
	if c.Review.ChunkSize < 0 {
		return fmt.Errorf("invalid review.chunk_size: %d", c.Review.ChunkSize)
	}
	if c.Review.Rate < 0 {
		return fmt.Errorf("invalid review.rate: %v", c.Review.Rate)
	}
	return nil
}

// defaultIndexPath places the index under XDG_CACHE_HOME.
func defaultIndexPath() string {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultIndexFile
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, ConfigDir, DefaultIndexFile)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
