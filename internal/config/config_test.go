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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtuann/aipac-dicom/dicom"
)

var envKeys = []string{
	"DICOMCTL_LOG_LEVEL",
	"DICOMCTL_LOG_FORMAT",
	"DICOMCTL_MAX_DEPTH",
	"DICOMCTL_STOP_AT_PIXEL_DATA",
	"DICOMCTL_FALLBACK_SYNTAX",
	"DICOMCTL_CATALOG",
	"DICOMCTL_WORKERS",
	"DICOMCTL_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dicomctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, dicom.DefaultMaxDepth, cfg.Decode.MaxDepth)
}

func TestLoad_file(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
log:
  level: debug
  format: json
decode:
  max_depth: 10
  stop_at_pixel_data: false
  fallback_syntax: 1.2.840.10008.1.2
catalog:
  path: /var/lib/dicom/catalog.db
scan:
  workers: 8
  timeout: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Decode.MaxDepth)
	assert.False(t, cfg.Decode.StopAtPixelData)
	assert.Equal(t, dicom.ImplicitVRLittleEndianUID, cfg.Decode.FallbackSyntax)
	assert.Equal(t, "/var/lib/dicom/catalog.db", cfg.Catalog.Path)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, 5*time.Second, cfg.Scan.Timeout)
}

func TestLoad_partialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeFile(t, "scan:\n  workers: 2\n"))
	require.NoError(t, err)

	want := Default()
	want.Scan.Workers = 2
	assert.Equal(t, want, cfg)
}

func TestLoad_env(t *testing.T) {
	clearEnv(t)
	t.Setenv("DICOMCTL_LOG_FORMAT", "json")
	t.Setenv("DICOMCTL_MAX_DEPTH", "12")
	t.Setenv("DICOMCTL_STOP_AT_PIXEL_DATA", "false")
	t.Setenv("DICOMCTL_CATALOG", "env.db")
	t.Setenv("DICOMCTL_WORKERS", "16")
	t.Setenv("DICOMCTL_TIMEOUT", "1m")
	t.Setenv("DICOMCTL_LOG_LEVEL", "warn")

	cfg, err := Load(writeFile(t, "log:\n  level: debug\nscan:\n  workers: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 12, cfg.Decode.MaxDepth)
	assert.False(t, cfg.Decode.StopAtPixelData)
	assert.Equal(t, "env.db", cfg.Catalog.Path)
	assert.Equal(t, 16, cfg.Scan.Workers)
	assert.Equal(t, time.Minute, cfg.Scan.Timeout)
}

func TestLoad_malformedEnvIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("DICOMCTL_WORKERS", "many")
	t.Setenv("DICOMCTL_TIMEOUT", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Scan, cfg.Scan)
}

func TestLoad_errors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.yaml")},
		{"bad yaml", writeFile(t, "scan: [")},
		{"bad format", writeFile(t, "log:\n  format: xml\n")},
		{"zero depth", writeFile(t, "decode:\n  max_depth: 0\n")},
		{"unknown fallback", writeFile(t, "decode:\n  fallback_syntax: 1.2.3\n")},
		{"no catalog", writeFile(t, "catalog:\n  path: \"\"\n")},
		{"no workers", writeFile(t, "scan:\n  workers: 0\n")},
		{"negative timeout", writeFile(t, "scan:\n  timeout: -1s\n")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path)
			assert.Error(t, err)
		})
	}
}

func TestParseOptions(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.ParseOptions(), 2)

	cfg.Decode.StopAtPixelData = false
	assert.Len(t, cfg.ParseOptions(), 1)

	cfg.Decode.FallbackSyntax = dicom.ExplicitVRLittleEndianUID
	assert.Len(t, cfg.ParseOptions(), 2)
}
