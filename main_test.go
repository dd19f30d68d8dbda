// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/drivedengo/internal/config"
)

const argSets = `search:
  defaults:
    - --output json
    - --titles
  wide: --attrs publicId,name,city --sort name
gps:
  raw: -o raw
`

func TestMangleArguments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driveden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(argSets), 0o600))
	t.Setenv("DRIVEDEN_CFG", path)
	_, err := config.Load()
	require.NoError(t, err)
	t.Cleanup(func() { config.Config = config.Type{} })

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "defaults inserted after command",
			args: []string{"driveden", "search", "pebble"},
			want: []string{"driveden", "search", "--output", "json", "--titles", "pebble"},
		},
		{
			name: "explicit set replaces defaults in place",
			args: []string{"driveden", "search", "-o", "yaml", "@wide", "pebble"},
			want: []string{"driveden", "search", "-o", "yaml", "--attrs", "publicId,name,city", "--sort", "name", "pebble"},
		},
		{
			name: "unknown set is dropped",
			args: []string{"driveden", "search", "@nope", "pebble"},
			want: []string{"driveden", "search", "pebble"},
		},
		{
			name: "no defaults for command",
			args: []string{"driveden", "gps", "pb-001"},
			want: []string{"driveden", "gps", "pb-001"},
		},
		{
			name: "single string set",
			args: []string{"driveden", "gps", "pb-001", "@raw"},
			want: []string{"driveden", "gps", "pb-001", "-o", "raw"},
		},
		{
			name: "help short-circuits",
			args: []string{"driveden", "search", "pebble", "-h"},
			want: []string{"driveden", "search", "--help"},
		},
		{
			name: "root flag untouched",
			args: []string{"driveden", "--version"},
			want: []string{"driveden", "--version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.args))
		})
	}
}
