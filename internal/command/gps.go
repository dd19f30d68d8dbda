// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/meta"
)

// GPSCommandAction fetches GPS data for one course group.
func GPSCommandAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 || strings.TrimSpace(cmd.Args().First()) == "" {
		return errors.New("gps needs exactly one course group publicId")
	}

	al, err := BuildAttrs(cmd)
	if err != nil {
		return err
	}

	client, _ := newUpstream(upstreamOptionsFromCommand(cmd), nil)

	payload, err := client.CourseGroupGPS(ctx, cmd.Args().First())
	if err != nil {
		return err
	}

	return Emit(cmd, payload, al)
}

// GPSCommandBuilder constructs the cli.Command for "gps".
func GPSCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "gps",
		Usage:     "course group GPS data",
		UsageText: `driveden gps [options] <publicId>`,
		Flags: append(
			NewUpstreamFlags("gps", meta.Config.Source),
			NewOutputFlags("gps", meta.Config.Source)...,
		),
		Examples: [][2]string{
			{"driveden gps pb-001 -o raw", "the upstream document untouched"},
			{"driveden gps pb-001 --path courses -a name,holeCount -t", "one row per course"},
		},
		Action: GPSCommandAction,
		Meta:   meta,
	}).Build()
}
