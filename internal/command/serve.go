// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/cache"
	"github.com/staranto/drivedengo/internal/meta"
	"github.com/staranto/drivedengo/internal/metrics"
	"github.com/staranto/drivedengo/internal/proxy"
)

const shutdownGrace = 10 * time.Second

// serveOptions are the resolved flags of the serve command.
type serveOptions struct {
	upstreamOptions
	Port      string
	WebDir    string
	SearchTTL time.Duration
	GPSTTL    time.Duration
	Metrics   bool
}

// ServeCommandAction runs the proxy until SIGINT or SIGTERM.
func ServeCommandAction(ctx context.Context, cmd *cli.Command) error {
	opts := serveOptions{
		upstreamOptions: upstreamOptionsFromCommand(cmd),
		Port:            cmd.String("port"),
		WebDir:          cmd.String("web"),
		SearchTTL:       cmd.Duration("search-ttl"),
		GPSTTL:          cmd.Duration("gps-ttl"),
		Metrics:         cmd.Bool("metrics"),
	}

	ln, err := net.Listen("tcp", ":"+opts.Port)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:           newServeHandler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithFields(log.Fields{
		"addr":       ln.Addr().String(),
		"base":       opts.Base,
		"search-ttl": opts.SearchTTL,
		"gps-ttl":    opts.GPSTTL,
	}).Info("driveden listening")

	return runServer(ctx, srv, ln)
}

// newServeHandler wires metrics, the token manager, the GI client and the
// response cache into a proxy.Server.
func newServeHandler(opts serveOptions) http.Handler {
	m := metrics.New("driveden")
	client, _ := newUpstream(opts.upstreamOptions, m)

	responses := cache.New[json.RawMessage]("response",
		cache.WithObserver(m.CacheObserver("response")))

	cfg := proxy.Config{
		SearchTTL: opts.SearchTTL,
		GPSTTL:    opts.GPSTTL,
		WebDir:    opts.WebDir,
	}
	if opts.Metrics {
		cfg.Metrics = m.Handler()
	}

	return proxy.NewServer(client, responses, cfg)
}

// runServer serves on ln until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeCommandBuilder constructs the cli.Command for "serve".
func ServeCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "serve",
		Usage:     "run the caching proxy",
		UsageText: `driveden serve [options]`,
		Flags: append(
			NewUpstreamFlags("serve", meta.Config.Source),
			NewServeFlags("serve", meta.Config.Source)...,
		),
		Examples: [][2]string{
			{"driveden serve", "listen on $PORT or 8080"},
			{"driveden serve --port 9090 --web ./public", "custom port and asset directory"},
			{"driveden serve --search-ttl 5m --no-metrics", "longer search caching, no /metrics"},
		},
		Action: ServeCommandAction,
		Meta:   meta,
	}).Build()
}
