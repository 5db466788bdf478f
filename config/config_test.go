package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LINGO_STATE_DIR", dir)
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.URL != "http://localhost:5000" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}
	if cfg.Audio.Format != "flac" {
		t.Errorf("format = %q", cfg.Audio.Format)
	}
	if cfg.Languages.Source != "en" || cfg.Languages.Target != "hi" {
		t.Errorf("languages = %+v", cfg.Languages)
	}
	if !strings.HasPrefix(cfg.Auth.TokenPath, dir) {
		t.Errorf("token path %q outside state dir", cfg.Auth.TokenPath)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LINGO_STATE_DIR", dir)
	path := filepath.Join(dir, "config.yaml")
	content := `
backend:
  url: http://translator.local:8080
languages:
  source: de
  target: ja
audio:
  format: wav
  device: USB Microphone
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend.URL != "http://translator.local:8080" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}
	if cfg.Languages.Source != "de" || cfg.Languages.Target != "ja" {
		t.Errorf("languages = %+v", cfg.Languages)
	}
	if cfg.Audio.Format != "wav" || cfg.Audio.Device != "USB Microphone" {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	// Unset sections keep their defaults.
	if cfg.Serve.Addr != ":5000" {
		t.Errorf("serve addr = %q", cfg.Serve.Addr)
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LINGO_STATE_DIR", dir)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("audio:\n  format: ogg\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for format ogg")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty backend", func(c *Config) { c.Backend.URL = "" }},
		{"bad format", func(c *Config) { c.Audio.Format = "mp3" }},
		{"no target", func(c *Config) { c.Languages.Target = "" }},
		{"no addr", func(c *Config) { c.Serve.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	cfg := defaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestStateDirOverride(t *testing.T) {
	t.Setenv("LINGO_STATE_DIR", "/tmp/lingo-test-state")
	if got := StateDir(); got != "/tmp/lingo-test-state" {
		t.Errorf("StateDir = %q", got)
	}
}
