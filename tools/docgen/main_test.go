// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/command"
)

func findCommand(t *testing.T, name string) *cli.Command {
	t.Helper()
	t.Setenv("DRIVEDEN_CFG", "/nonexistent/driveden.yaml")

	app, err := command.InitApp(context.Background(), []string{"driveden"})
	require.NoError(t, err)
	for _, c := range app.Commands {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("command %s not found", name)
	return nil
}

func TestBuildMarkdown(t *testing.T) {
	md := buildMarkdown(findCommand(t, "serve"))

	assert.Contains(t, md, "% DRIVEDEN-SERVE 1")
	assert.Contains(t, md, "driveden-serve - run the caching proxy")
	assert.Contains(t, md, "**--port**, **-p** *value*")
	assert.Contains(t, md, "(env: PORT)")
	assert.Contains(t, md, "# EXAMPLES")

	man := string(md2man.Render([]byte(md)))
	assert.Contains(t, man, ".TH")
	assert.Contains(t, man, "EXAMPLES")
}

func TestBuildTLDR(t *testing.T) {
	got := buildTLDR("gps", "course group GPS data", [][2]string{
		{"driveden  gps pb-001   -o raw", "the upstream document untouched"},
	})
	assert.Equal(t, "# driveden-gps\n\n"+
		"> Course group GPS data.\n"+
		"> More information: https://github.com/staranto/drivedengo.\n\n"+
		"- The upstream document untouched:\n\n"+
		"`driveden gps pb-001 -o raw`\n", got)

	got = buildTLDR("token", "", nil)
	assert.Contains(t, got, "`driveden token --help`")
}

func TestWriteFileIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.1")

	require.NoError(t, writeFileIfChanged(path, []byte("one\n"), true))
	info, err := os.Stat(path)
	require.NoError(t, err)

	// Same content modulo whitespace is left alone.
	require.NoError(t, writeFileIfChanged(path, []byte("one"), true))
	again, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())

	require.NoError(t, writeFileIfChanged(path, []byte("two"), true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}
