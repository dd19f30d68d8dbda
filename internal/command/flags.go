// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/config"
	"github.com/staranto/drivedengo/internal/gi"
	"github.com/staranto/drivedengo/internal/proxy"
)

// configDuration reads a default duration from the config file. Plain
// numbers are seconds. Unusable values fall back to def.
func configDuration(key string, def time.Duration) time.Duration {
	d, err := config.GetDuration(key, def)
	if err != nil {
		log.WithError(err).Warnf("ignoring config %s", key)
		return def
	}
	if d <= 0 {
		log.WithField("value", d).Warnf("ignoring config %s", key)
		return def
	}
	return d
}

func newExamplesFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "examples",
		Usage:       "show example invocations",
		HideDefault: true,
	}
}

// configSources returns the namespaced and global config file sources for a
// flag. The namespaced key wins.
func configSources(ns string, path string, name string) []cli.ValueSource {
	return []cli.ValueSource{
		yaml.YAML(ns+"."+name, altsrc.StringSourcer(path)),
		yaml.YAML(name, altsrc.StringSourcer(path)),
	}
}

// sourceChain builds a chain of env vars followed by the config file.
func sourceChain(ns string, path string, name string, envs ...string) cli.ValueSourceChain {
	var chain []cli.ValueSource
	for _, e := range envs {
		chain = append(chain, cli.EnvVar(e))
	}
	return cli.NewValueSourceChain(append(chain, configSources(ns, path, name)...)...)
}

// NewOutputFlags are the rendering flags shared by the client commands.
func NewOutputFlags(ns string, path string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of key[:title[:transform]] columns",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(configSources(ns, path, "color")...),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format (text, json, yaml, raw)",
			Sources: cli.NewValueSourceChain(configSources(ns, path, "output")...),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "gjson path to the rows inside the response",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"path", altsrc.StringSourcer(path)),
			),
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"sort", altsrc.StringSourcer(path)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(configSources(ns, path, "titles")...),
			Value:   false,
		},
	}
}

// NewUpstreamFlags are the flags needed to reach and authenticate against
// the GI API.
func NewUpstreamFlags(ns string, path string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "base",
			Usage:   "GI API base URL",
			Sources: sourceChain(ns, path, "base", "GI_BASE"),
			Value:   gi.DefaultBaseURL,
			Validator: func(value string) error {
				return FlagValidators(value, URLValidator)
			},
		},
		&cli.StringFlag{
			Name:    "client-id",
			Usage:   "GI client id",
			Sources: sourceChain(ns, path, "client-id", "GI_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:    "secret",
			Usage:   "GI client secret",
			Sources: sourceChain(ns, path, "secret", "GI_API_TOKEN"),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "upper bound on each upstream call",
			Sources: sourceChain(ns, path, "timeout", "DRIVEDEN_TIMEOUT"),
			Value:   gi.DefaultTimeout,
			Validator: func(value time.Duration) error {
				return FlagValidators(value, PositiveDurationValidator)
			},
		},
		&cli.IntFlag{
			Name:    "rows",
			Usage:   "page size for course searches",
			Sources: sourceChain(ns, path, "rows", "DRIVEDEN_SEARCH_ROWS"),
			Value:   gi.DefaultSearchRows,
		},
	}
}

// NewServeFlags are the listener and cache flags of the serve command.
func NewServeFlags(ns string, path string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "port to listen on",
			Sources: sourceChain(ns, path, "port", "PORT"),
			Value:   "8080",
			Validator: func(value string) error {
				return FlagValidators(value, PortValidator)
			},
		},
		&cli.StringFlag{
			Name:    "web",
			Usage:   "directory holding index.html and static assets",
			Sources: sourceChain(ns, path, "web", "DRIVEDEN_WEB"),
			Value:   "web",
		},
		&cli.DurationFlag{
			Name:    "search-ttl",
			Usage:   "how long search results are cached",
			Sources: sourceChain(ns, path, "search-ttl", "DRIVEDEN_SEARCH_TTL"),
			Value:   configDuration("ttl.search", proxy.DefaultSearchTTL),
			Validator: func(value time.Duration) error {
				return FlagValidators(value, PositiveDurationValidator)
			},
		},
		&cli.DurationFlag{
			Name:    "gps-ttl",
			Usage:   "how long GPS data is cached",
			Sources: sourceChain(ns, path, "gps-ttl", "DRIVEDEN_GPS_TTL"),
			Value:   configDuration("ttl.gps", proxy.DefaultGPSTTL),
			Validator: func(value time.Duration) error {
				return FlagValidators(value, PositiveDurationValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "metrics",
			Usage:   "expose Prometheus metrics on /metrics",
			Sources: cli.NewValueSourceChain(configSources(ns, path, "metrics")...),
			Value:   true,
		},
	}
}
