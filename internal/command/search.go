// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/gi"
	"github.com/staranto/drivedengo/internal/meta"
)

// SearchCommandAction searches course groups and renders the results.
func SearchCommandAction(ctx context.Context, cmd *cli.Command) error {
	keywords := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))

	hasLat, hasLon := cmd.IsSet("lat"), cmd.IsSet("lon")
	if keywords == "" && !hasLat && !cmd.IsSet("country") {
		return errors.New("search needs keywords, --country or --lat/--lon")
	}
	if hasLat != hasLon {
		return errors.New("--lat and --lon must be used together")
	}

	al, err := BuildAttrs(cmd)
	if err != nil {
		return err
	}

	client, _ := newUpstream(upstreamOptionsFromCommand(cmd), nil)

	sr := client.NewSearchRequest(keywords)
	sr.Offset = int(cmd.Int("offset"))
	sr.CountryCode = cmd.String("country")
	sr.RegionCode = cmd.String("region")
	if hasLat {
		sr.GPSCoordinate = gi.Coordinate{
			Latitude:  cmd.Float("lat"),
			Longitude: cmd.Float("lon"),
		}
	}

	payload, err := client.SearchCourseGroups(ctx, sr)
	if err != nil {
		return err
	}

	return Emit(cmd, payload, al)
}

// SearchCommandBuilder constructs the cli.Command for "search".
func SearchCommandBuilder(meta meta.Meta) *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:  "offset",
			Usage: "number of results to skip",
		},
		&cli.StringFlag{
			Name:    "country",
			Usage:   "ISO country code to restrict the search to",
			Sources: cli.NewValueSourceChain(configSources("search", meta.Config.Source, "country")...),
		},
		&cli.StringFlag{
			Name:  "region",
			Usage: "region code to restrict the search to",
		},
		&cli.FloatFlag{
			Name:  "lat",
			Usage: "latitude to search around",
		},
		&cli.FloatFlag{
			Name:  "lon",
			Usage: "longitude to search around",
		},
	}
	flags = append(flags, NewUpstreamFlags("search", meta.Config.Source)...)
	flags = append(flags, NewOutputFlags("search", meta.Config.Source)...)

	return (&CommandBuilder{
		Name:      "search",
		Usage:     "search course groups",
		UsageText: `driveden search [options] <keywords>`,
		Flags:     flags,
		Examples: [][2]string{
			{"driveden search pebble beach", "course groups matching the keywords"},
			{"driveden search --country US --rows 25 -o json", "first 25 US course groups as JSON"},
			{"driveden search --lat 36.57 --lon -121.95 -a publicId,name -t", "nearby groups, two columns"},
			{"driveden search pebble @wide", "use the search.wide argument set"},
		},
		Action: SearchCommandAction,
		Meta:   meta,
	}).Build()
}
