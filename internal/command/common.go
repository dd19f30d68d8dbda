// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/attrs"
	"github.com/staranto/drivedengo/internal/gi"
	"github.com/staranto/drivedengo/internal/meta"
	"github.com/staranto/drivedengo/internal/metrics"
	"github.com/staranto/drivedengo/internal/output"
	"github.com/staranto/drivedengo/internal/token"
)

// BuildAttrs constructs an AttrList from defaults and --attrs, then applies
// the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList, err error) {
	for _, d := range defaults {
		if err = al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err = al.Set(extras); err != nil {
			return nil, err
		}
	}
	err = al.SetGlobalTransformSpec()
	return
}

// Emit renders a GI payload through the common output routine.
func Emit(cmd *cli.Command, payload json.RawMessage, al attrs.AttrList) error {
	log.Debugf("attrs: %v", al.String())
	return output.SliceDiceSpit(payload, al, cmd, cmd.String("path"), writer(cmd))
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// GetExamples returns the example invocations registered for cmd.
func GetExamples(cmd *cli.Command) [][2]string {
	if cmd == nil || cmd.Metadata == nil {
		return nil
	}
	ex, _ := cmd.Metadata["examples"].([][2]string)
	return ex
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return cmd.Writer
}

// upstreamOptions are the resolved upstream flags of a command.
type upstreamOptions struct {
	Base     string
	ClientID string
	Secret   string
	Timeout  time.Duration
	Rows     int
}

func upstreamOptionsFromCommand(cmd *cli.Command) upstreamOptions {
	return upstreamOptions{
		Base:     cmd.String("base"),
		ClientID: cmd.String("client-id"),
		Secret:   cmd.String("secret"),
		Timeout:  cmd.Duration("timeout"),
		Rows:     int(cmd.Int("rows")),
	}
}

// newUpstream wires a token manager and GI client. m may be nil, in which
// case nothing is recorded.
func newUpstream(o upstreamOptions, m *metrics.Metrics) (*gi.Client, *token.Manager) {
	if o.ClientID == "" || o.Secret == "" {
		log.Warn("GI_CLIENT_ID or GI_API_TOKEN is not set, upstream authentication will fail")
	}

	giOpts := []gi.Option{gi.WithTimeout(o.Timeout), gi.WithSearchRows(o.Rows)}
	if m != nil {
		giOpts = append(giOpts, gi.WithRecorder(m))
	}

	refreshed := func(err error) {
		if m != nil {
			m.TokenRefreshed(err)
		}
		if err != nil {
			log.WithError(err).Warn("token refresh failed")
		}
	}

	auth := gi.NewAuthenticator(o.Base, o.ClientID, o.Secret, giOpts...)
	mgr := token.NewManager(auth, token.WithRefreshHook(refreshed))
	return gi.NewClient(o.Base, mgr, giOpts...), mgr
}

// CommandBuilder constructs the cli.Command of a subcommand with the shared
// metadata and --examples handling.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Examples  [][2]string
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	flags := cb.Flags
	if len(cb.Examples) > 0 {
		flags = append(flags, newExamplesFlag())
	}

	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta":     cb.Meta,
			"examples": cb.Examples,
		},
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if len(cb.Examples) > 0 && cmd.Bool("examples") {
				output.DumpExamples(writer(cmd), cb.Examples)
				return nil
			}
			log.Debugf("executing %s with %v", cb.Name, cmd.Args().Slice())
			return cb.Action(ctx, cmd)
		},
	}
}

// expiresIn describes the remaining lifetime of t for humans.
func expiresIn(t token.Token, now time.Time) string {
	if t.Value == "" {
		return "no token"
	}
	if !t.ExpiresAt.After(now) {
		return "expired " + humanize.RelTime(t.ExpiresAt, now, "ago", "from now")
	}
	return "expires " + humanize.RelTime(t.ExpiresAt, now, "ago", "from now")
}
