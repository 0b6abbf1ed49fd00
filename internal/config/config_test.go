package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigDir, ConfigFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/citefix/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := Path(), filepath.Join(home, ".config", "citefix", "config.yml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	ResetCache()
	defer ResetCache()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", "/cache")
	t.Setenv(EnvReviewModel, "")
	t.Setenv(EnvReviewCommand, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Threshold != DefaultThreshold || cfg.MinParagraphLength != DefaultMinParagraphLength {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Review.Timeout != DefaultReviewTimeout || cfg.Review.Command != DefaultReviewCommand {
		t.Errorf("review defaults not applied: %+v", cfg.Review)
	}
	if cfg.IndexPath != "/cache/citefix/citefix.db" {
		t.Errorf("IndexPath = %q", cfg.IndexPath)
	}
}

func TestLoad_Valid(t *testing.T) {
	ResetCache()
	defer ResetCache()
	t.Setenv(EnvReviewModel, "")
	t.Setenv(EnvReviewCommand, "")

	dir := writeConfig(t, `threshold: 0.85
min_paragraph_length: 20
authors: [Li, Ng]
index_path: /tmp/x.db
review:
  model: sonnet
  timeout: 30s
  chunk_size: 5
`)
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Threshold != 0.85 || cfg.MinParagraphLength != 20 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Authors) != 2 || cfg.Authors[1] != "Ng" {
		t.Errorf("Authors = %v", cfg.Authors)
	}
	if cfg.Review.Model != "sonnet" || cfg.Review.Timeout != 30*time.Second || cfg.Review.ChunkSize != 5 {
		t.Errorf("Review = %+v", cfg.Review)
	}
	if cfg.Review.Rate != DefaultReviewRate {
		t.Errorf("Rate = %v, want default", cfg.Review.Rate)
	}
	if cfg.IndexPath != "/tmp/x.db" {
		t.Errorf("IndexPath = %q", cfg.IndexPath)
	}

	// Cached until reset.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	again, _ := Load()
	if again != cfg {
		t.Error("Load() should return the cached config")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, "review:\n  model: sonnet\n")
	t.Setenv(EnvReviewModel, "opus")
	t.Setenv(EnvReviewCommand, "/usr/local/bin/claude")

	cfg, err := LoadFile(filepath.Join(dir, ConfigDir, ConfigFile))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Review.Model != "opus" || cfg.Review.Command != "/usr/local/bin/claude" {
		t.Errorf("Review = %+v", cfg.Review)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "threshold: [", "parsing config"},
		{"threshold too high", "threshold: 1.5", "invalid threshold"},
		{"negative length", "min_paragraph_length: -1", "invalid min_paragraph_length"},
		{"bad duration", "review:\n  timeout: soon\n", "parsing config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.body)
			_, err := LoadFile(filepath.Join(dir, ConfigDir, ConfigFile))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFile() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/idx.db"); got != filepath.Join(home, "idx.db") {
		t.Errorf("ExpandPath() = %q", got)
	}
	if got := ExpandPath("/abs/idx.db"); got != "/abs/idx.db" {
		t.Errorf("ExpandPath() = %q", got)
	}
}
