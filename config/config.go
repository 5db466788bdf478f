// Package config loads lingo's settings: a YAML config file, a .env
// file for API keys, LINGO_* environment overrides, then flag
// overrides applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend   BackendConfig `mapstructure:"backend" yaml:"backend"`
	Languages LangConfig    `mapstructure:"languages" yaml:"languages"`
	Audio     AudioConfig   `mapstructure:"audio" yaml:"audio"`
	Auth      AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Serve     ServeConfig   `mapstructure:"serve" yaml:"serve"`
}

type BackendConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type LangConfig struct {
	Source string `mapstructure:"source" yaml:"source"`
	Target string `mapstructure:"target" yaml:"target"`
}

type AudioConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Device string `mapstructure:"device" yaml:"device"`
}

type AuthConfig struct {
	TokenPath string `mapstructure:"token_path" yaml:"token_path"`
}

type ServeConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	AudioDir   string `mapstructure:"audio_dir" yaml:"audio_dir"`
	ProfileDir string `mapstructure:"profile_dir" yaml:"profile_dir"`
}

// Keys read from the environment / .env, never from the config file.
const (
	EnvTranslateKey = "GOOGLE_TRANSLATE_API_KEY"
	EnvSTTKey       = "STT_API_KEY"
	EnvTokenSecret  = "LINGO_TOKEN_SECRET"
	EnvAccessCode   = "LINGO_ACCESS_CODE"
)

// StateDir is where the config file, token and logs live.
func StateDir() string {
	if dir := os.Getenv("LINGO_STATE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".lingo")
}

// DefaultPath is the config file used when -config is not given.
func DefaultPath() string {
	return filepath.Join(StateDir(), "config.yaml")
}

func defaults() Config {
	state := StateDir()
	return Config{
		Backend:   BackendConfig{URL: "http://localhost:5000"},
		Languages: LangConfig{Source: "en", Target: "hi"},
		Audio:     AudioConfig{Format: "flac"},
		Auth:      AuthConfig{TokenPath: filepath.Join(state, "token")},
		Serve: ServeConfig{
			Addr:       ":5000",
			AudioDir:   filepath.Join(state, "static"),
			ProfileDir: filepath.Join(state, "profiles"),
		},
	}
}

// Load reads path (written with defaults first if absent), layers
// LINGO_* env vars on top, and loads .env from the working directory
// when present.
func Load(path string) (*Config, error) {
	// .env is optional; real env vars win over it.
	godotenv.Load()

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeDefault(path); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LINGO")
	v.AutomaticEnv()

	def := defaults()
	v.SetDefault("backend.url", def.Backend.URL)
	v.SetDefault("languages.source", def.Languages.Source)
	v.SetDefault("languages.target", def.Languages.Target)
	v.SetDefault("audio.format", def.Audio.Format)
	v.SetDefault("audio.device", def.Audio.Device)
	v.SetDefault("auth.token_path", def.Auth.TokenPath)
	v.SetDefault("serve.addr", def.Serve.Addr)
	v.SetDefault("serve.audio_dir", def.Serve.AudioDir)
	v.SetDefault("serve.profile_dir", def.Serve.ProfileDir)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	def := defaults()
	data, err := yaml.Marshal(&def)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("config: backend.url must not be empty")
	}
	if c.Audio.Format != "flac" && c.Audio.Format != "wav" {
		return fmt.Errorf("config: audio.format must be flac or wav, got %q", c.Audio.Format)
	}
	if c.Languages.Source == "" || c.Languages.Target == "" {
		return fmt.Errorf("config: languages.source and languages.target must be set")
	}
	if c.Serve.Addr == "" {
		return fmt.Errorf("config: serve.addr must not be empty")
	}
	return nil
}
