// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/config"
	"github.com/staranto/drivedengo/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	// args[1] is the subcommand and also the namespace for config lookups.
	// It may be -h/--help, so ignore it if it looks like a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// A missing config file is fine, flags fall back to env and defaults.
	cfg, _ := config.Load(ns)
	meta := meta.Meta{
		Args:    args,
		Config:  cfg,
		Context: ctx,
	}

	app := &cli.Command{
		Name:                  "driveden",
		Usage:                 "Golf Intelligence caching proxy",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "driveden version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		GPSCommandBuilder(meta),
		SearchCommandBuilder(meta),
		ServeCommandBuilder(meta),
		TokenCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
