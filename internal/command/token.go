// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/meta"
)

// TokenCommandAction authenticates once and reports the token's lifetime.
// The token itself is only printed with --show.
func TokenCommandAction(ctx context.Context, cmd *cli.Command) error {
	_, mgr := newUpstream(upstreamOptionsFromCommand(cmd), nil)

	tok, err := mgr.Token(ctx)
	if err != nil {
		return err
	}

	w := writer(cmd)
	fmt.Fprintf(w, "%s (%s)\n", expiresIn(tok, time.Now()), tok.ExpiresAt.Format(time.RFC3339))
	if cmd.Bool("show") {
		fmt.Fprintln(w, tok.Value)
	}
	return nil
}

// TokenCommandBuilder constructs the cli.Command for "token".
func TokenCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "token",
		Usage:     "check the GI credentials",
		UsageText: `driveden token [options]`,
		Flags: append(NewUpstreamFlags("token", meta.Config.Source),
			&cli.BoolFlag{
				Name:        "show",
				Usage:       "print the access token",
				HideDefault: true,
			},
		),
		Action: TokenCommandAction,
		Meta:   meta,
	}).Build()
}
