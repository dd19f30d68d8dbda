// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig points DRIVEDEN_CFG at a testdata file and loads it.
func setupTestConfig(t *testing.T, testdataFile string, namespace ...string) {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", testdataFile))
	require.NoError(t, err)
	t.Setenv("DRIVEDEN_CFG", absPath)

	Config = Type{}
	t.Cleanup(func() { Config = Type{} })

	_, err = Load(namespace...)
	require.NoError(t, err)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "https://api.example.test", cfg.Data["base"])
				assert.Equal(t, "9090", cfg.Data["port"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				serve, ok := cfg.Data["serve"].(map[string]interface{})
				require.True(t, ok, "serve should be a map")
				assert.Equal(t, "8181", serve["port"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, "driveden", cfg.Data["name"])
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["enabled"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
				tags, ok := cfg.Data["tags"].([]interface{})
				assert.True(t, ok)
				assert.Len(t, tags, 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Empty(t, cfg.Data)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)
			tt.checkFunc(t, Config)
		})
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("DRIVEDEN_CFG", "/nonexistent/path/driveden.yaml")
	Config = Type{}

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_IsDirectory(t *testing.T) {
	t.Setenv("DRIVEDEN_CFG", "testdata")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_SearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("port: \"7070\"\n"), 0o600))

	t.Setenv("DRIVEDEN_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", dir)
	Config = Type{}
	t.Cleanup(func() { Config = Type{} })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Source)

	port, err := GetString("port")
	require.NoError(t, err)
	assert.Equal(t, "7070", port)
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{"simple string value", "simple.yaml", "base", nil, "https://api.example.test", false},
		{"nested string value", "nested.yaml", "colors.title", nil, "#ff0000", false},
		{"missing key with default", "simple.yaml", "missing", []string{"fallback"}, "fallback", false},
		{"missing key without default", "simple.yaml", "missing", nil, "", true},
		{"non-string value", "mixed-types.yaml", "version", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)

			got, err := GetString(tt.key, tt.defaultValue...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{"int value", "mixed-types.yaml", "version", nil, 1, false},
		{"float value converted to int", "mixed-types.yaml", "timeout", nil, 30, false},
		{"top level int", "simple.yaml", "rows", nil, 25, false},
		{"missing key with default", "simple.yaml", "missing", []int{60}, 60, false},
		{"missing key without default", "simple.yaml", "missing", nil, 0, true},
		{"non-int value", "simple.yaml", "base", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)

			got, err := GetInt(tt.key, tt.defaultValue...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue []time.Duration
		want         time.Duration
		wantErr      bool
	}{
		{"duration string", "serve.ttl.search", nil, 90 * time.Second, false},
		{"plain seconds", "serve.ttl.gps", nil, 10 * time.Minute, false},
		{"missing key with default", "serve.ttl.other", []time.Duration{time.Minute}, time.Minute, false},
		{"missing key without default", "serve.ttl.other", nil, 0, true},
		{"not a duration", "colors.title", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, "nested.yaml")

			got, err := GetDuration(tt.key, tt.defaultValue...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetStringSlice(t *testing.T) {
	setupTestConfig(t, "nested.yaml")

	got, err := GetStringSlice("search.defaults")
	require.NoError(t, err)
	assert.Equal(t, []string{"--output json", "--titles"}, got)

	got, err = GetStringSlice("search.wide")
	require.NoError(t, err)
	assert.Equal(t, []string{"--attrs name,city,country"}, got)

	_, err = GetStringSlice("serve.ttl")
	assert.ErrorIs(t, err, ErrNotList)

	_, err = GetStringSlice("search.missing")
	assert.Error(t, err)
}

func TestConfig_GetWithNamespace(t *testing.T) {
	setupTestConfig(t, "nested.yaml", "serve")

	// Namespaced key wins over the global one.
	port, err := GetString("port")
	require.NoError(t, err)
	assert.Equal(t, "8181", port)

	// Falls back to the bare key when the namespace lacks it.
	title, err := GetString("colors.title")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", title)

	Config.Namespace = "search"
	_, err = Config.get("port")
	assert.Error(t, err)
}
