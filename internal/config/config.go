// Package config loads basket settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds resolved settings. Paths are already expanded.
type Config struct {
	DataFile   string
	SeedURL    string
	Theme      string
	SampleSize int
	LogFile    string
	LogLevel   string
	LogFormat  string
}

const (
	defaultConfigPath = "~/.config/basket/config.toml"
	defaultDataFile   = "basket.json"
	defaultTheme      = "classic"
	defaultSampleSize = 3
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
)

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		DataFile:   defaultDataFile,
		Theme:      defaultTheme,
		SampleSize: defaultSampleSize,
		LogLevel:   defaultLogLevel,
		LogFormat:  defaultLogFormat,
	}
}

// Load parses the config at path (or the default location), falling back to
// defaults when the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		DataFile   string `toml:"data_file"`
		SeedURL    string `toml:"seed_url"`
		Theme      string `toml:"theme"`
		SampleSize *int   `toml:"sample_size"`
		LogFile    string `toml:"log_file"`
		LogLevel   string `toml:"log_level"`
		LogFormat  string `toml:"log_format"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.DataFile); v != "" {
		cfg.DataFile = mustExpand(v)
	}
	cfg.SeedURL = strings.TrimSpace(raw.SeedURL)
	if v := strings.TrimSpace(raw.Theme); v != "" {
		cfg.Theme = strings.ToLower(v)
	}
	if raw.SampleSize != nil {
		if *raw.SampleSize < 0 {
			return Config{}, fmt.Errorf("parse config: sample_size must not be negative")
		}
		cfg.SampleSize = *raw.SampleSize
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
