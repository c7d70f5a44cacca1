package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "webpics.yaml")

	configContent := `
source_dir: "site/static/img"
output_dir: "resized"
exclude:
  - logo.jpeg
  - favicon.png
max_concurrency: 3
replace_profile: "web"

publish:
  bucket: "assets.example.com"
  prefix: "img"
  max_concurrent: 8
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SourceDir != "site/static/img" {
		t.Errorf("Expected source_dir 'site/static/img', got '%s'", cfg.SourceDir)
	}
	if cfg.OutputDir != "resized" {
		t.Errorf("Expected output_dir 'resized', got '%s'", cfg.OutputDir)
	}
	if len(cfg.Exclude) != 2 || cfg.Exclude[1] != "favicon.png" {
		t.Errorf("Unexpected exclude list: %v", cfg.Exclude)
	}
	if cfg.MaxConcurrency != 3 {
		t.Errorf("Expected max_concurrency 3, got %d", cfg.MaxConcurrency)
	}
	if cfg.ReplaceProfile != "web" {
		t.Errorf("Expected replace_profile 'web', got '%s'", cfg.ReplaceProfile)
	}
	if cfg.Publish.Bucket != "assets.example.com" || cfg.Publish.Prefix != "img" || cfg.Publish.MaxConcurrent != 8 {
		t.Errorf("Unexpected publish config: %+v", cfg.Publish)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "webpics.yaml")
	if err := os.WriteFile(configFile, []byte("publish:\n  bucket: b\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SourceDir != "public/images" || cfg.OutputDir != "compressed" {
		t.Errorf("Expected default directories, got %s and %s", cfg.SourceDir, cfg.OutputDir)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "logo.jpeg" {
		t.Errorf("Expected default exclude list, got %v", cfg.Exclude)
	}
	if cfg.Publish.Prefix != "images/compressed" || cfg.Publish.MaxConcurrent != 5 {
		t.Errorf("Expected default publish settings, got %+v", cfg.Publish)
	}
	if cfg.Publish.Bucket != "b" {
		t.Errorf("Expected bucket 'b', got '%s'", cfg.Publish.Bucket)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxConcurrency != runtime.NumCPU() {
		t.Errorf("Expected max_concurrency %d, got %d", runtime.NumCPU(), cfg.MaxConcurrency)
	}
	if cfg.ReplaceProfile != "original" {
		t.Errorf("Expected replace_profile 'original', got '%s'", cfg.ReplaceProfile)
	}
}

func TestLoadErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	broken := filepath.Join(tmpDir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("exclude: [unterminated"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := Load(broken); err == nil {
		t.Error("Expected error for malformed YAML")
	}

	invalid := filepath.Join(tmpDir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("max_concurrency: 0\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := Load(invalid); err == nil || !strings.Contains(err.Error(), "max_concurrency") {
		t.Errorf("Expected max_concurrency validation error, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	profiles := []string{"medium", "original", "thumbnail", "ultra", "web"}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"missing source", func(c *Config) { c.SourceDir = "" }, "source_dir"},
		{"missing output", func(c *Config) { c.OutputDir = "" }, "output_dir"},
		{"zero concurrency", func(c *Config) { c.MaxConcurrency = 0 }, "max_concurrency"},
		{"zero publish concurrency", func(c *Config) { c.Publish.MaxConcurrent = -1 }, "publish.max_concurrent"},
		{"unknown profile", func(c *Config) { c.ReplaceProfile = "poster" }, "poster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate(profiles)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate(nil)
	if err == nil {
		t.Fatal("Expected error for empty config")
	}
	for _, field := range []string{"source_dir", "output_dir", "max_concurrency", "publish.max_concurrent"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Expected error to mention %s, got %v", field, err)
		}
	}
}
