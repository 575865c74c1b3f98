// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the dicomctl configuration from YAML with DICOMCTL_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mtuann/aipac-dicom/dicom"
	"gopkg.in/yaml.v3"
)

// Config is the dicomctl configuration
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Decode  DecodeConfig  `yaml:"decode"`
	Catalog CatalogConfig `yaml:"catalog"`
	Scan    ScanConfig    `yaml:"scan"`
}

// LogConfig configures the process logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DecodeConfig maps onto dicom.ParseOption values
type DecodeConfig struct {
	MaxDepth        int  `yaml:"max_depth"`
	StopAtPixelData bool `yaml:"stop_at_pixel_data"`
	// FallbackSyntax is a transfer syntax UID used when a file names none or an unknown one
	FallbackSyntax string `yaml:"fallback_syntax,omitempty"`
}

// CatalogConfig locates the SQLite catalog
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ScanConfig bounds the concurrent decoding of the index command
type ScanConfig struct {
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "console"},
		Decode:  DecodeConfig{MaxDepth: dicom.DefaultMaxDepth, StopAtPixelData: true},
		Catalog: CatalogConfig{Path: "dicom-catalog.db"},
		Scan:    ScanConfig{Workers: 4, Timeout: 30 * time.Second},
	}
}

// Load reads the YAML file at path over the defaults and applies the environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("DICOMCTL_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("DICOMCTL_LOG_FORMAT", c.Log.Format)
	c.Decode.MaxDepth = getEnvInt("DICOMCTL_MAX_DEPTH", c.Decode.MaxDepth)
	c.Decode.StopAtPixelData = getEnvBool("DICOMCTL_STOP_AT_PIXEL_DATA", c.Decode.StopAtPixelData)
	c.Decode.FallbackSyntax = getEnv("DICOMCTL_FALLBACK_SYNTAX", c.Decode.FallbackSyntax)
	c.Catalog.Path = getEnv("DICOMCTL_CATALOG", c.Catalog.Path)
	c.Scan.Workers = getEnvInt("DICOMCTL_WORKERS", c.Scan.Workers)
	c.Scan.Timeout = getEnvDuration("DICOMCTL_TIMEOUT", c.Scan.Timeout)
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "json", "console", "text":
	default:
		return fmt.Errorf("log.format %q must be json or console", c.Log.Format)
	}
	if c.Decode.MaxDepth < 1 {
		return errors.New("decode.max_depth must be positive")
	}
	if c.Decode.FallbackSyntax != "" {
		if _, err := dicom.LookupTransferSyntax(c.Decode.FallbackSyntax); err != nil {
			return fmt.Errorf("decode.fallback_syntax: %w", err)
		}
	}
	if c.Catalog.Path == "" {
		return errors.New("catalog.path is required")
	}
	if c.Scan.Workers < 1 {
		return errors.New("scan.workers must be positive")
	}
	if c.Scan.Timeout < 0 {
		return errors.New("scan.timeout must not be negative")
	}
	return nil
}

// ParseOptions returns the decoder options selected by the decode section.
func (c *Config) ParseOptions() []dicom.ParseOption {
	opts := []dicom.ParseOption{dicom.WithMaxDepth(c.Decode.MaxDepth)}
	if c.Decode.StopAtPixelData {
		opts = append(opts, dicom.SkipPixelData)
	}
	if ts, err := dicom.LookupTransferSyntax(c.Decode.FallbackSyntax); err == nil {
		opts = append(opts, dicom.WithFallbackSyntax(ts))
	}
	return opts
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
