// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/staranto/drivedengo/internal/command"
)

// Doc generator driven by the live command tree:
// - docs/man/share/man1/driveden-<cmd>.1 via md2man
// - docs/tldr/driveden-<cmd>.md from the registered examples

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	if err := os.MkdirAll(manOutDir, 0o755); err != nil {
		fatalf("creating man output dir: %v", err)
	}
	if err := os.MkdirAll(tldrOutDir, 0o755); err != nil {
		fatalf("creating tldr output dir: %v", err)
	}

	app, err := command.InitApp(context.Background(), []string{"driveden"})
	if err != nil {
		fatalf("building command tree: %v", err)
	}

	var processed int
	for _, cmd := range app.Commands {
		if cmd.Hidden {
			continue
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("driveden-%s.1", cmd.Name))
		if err := writeFileIfChanged(manPath, md2man.Render([]byte(buildMarkdown(cmd))), writeOnlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", cmd.Name, err)
		}

		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("driveden-%s.md", cmd.Name))
		tldr := buildTLDR(cmd.Name, cmd.Usage, command.GetExamples(cmd))
		if err := writeFileIfChanged(tldrPath, []byte(tldr), writeOnlyIfChanged); err != nil {
			fatalf("writing TLDR for %s: %v", cmd.Name, err)
		}

		processed++
	}

	if processed == 0 {
		fatalf("no commands found")
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}

// docFlag is the part of a cli/v3 flag the man page needs.
type docFlag interface {
	Names() []string
	GetUsage() string
	TakesValue() bool
}

// envFlag is implemented by flags with env var sources.
type envFlag interface {
	GetEnvVars() []string
}

// buildMarkdown renders the man page source of one subcommand in the
// md2man dialect.
func buildMarkdown(cmd *cli.Command) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%% DRIVEDEN-%s 1\n\n", strings.ToUpper(cmd.Name))
	b.WriteString("# NAME\n\n")
	fmt.Fprintf(&b, "driveden-%s - %s\n\n", cmd.Name, cmd.Usage)

	if cmd.UsageText != "" {
		b.WriteString("# SYNOPSIS\n\n")
		fmt.Fprintf(&b, "**%s**\n\n", cmd.UsageText)
	}

	if len(cmd.Flags) > 0 {
		b.WriteString("# OPTIONS\n\n")
		for _, f := range cmd.Flags {
			df, ok := f.(docFlag)
			if !ok {
				continue
			}

			var names []string
			for _, n := range df.Names() {
				prefix := "--"
				if len(n) == 1 {
					prefix = "-"
				}
				names = append(names, "**"+prefix+n+"**")
			}
			b.WriteString(strings.Join(names, ", "))
			if df.TakesValue() {
				b.WriteString(" *value*")
			}
			b.WriteString("\n: ")
			b.WriteString(df.GetUsage())
			if ef, ok := f.(envFlag); ok && len(ef.GetEnvVars()) > 0 {
				fmt.Fprintf(&b, " (env: %s)", strings.Join(ef.GetEnvVars(), ", "))
			}
			b.WriteString("\n\n")
		}
	}

	if examples := command.GetExamples(cmd); len(examples) > 0 {
		b.WriteString("# EXAMPLES\n\n")
		for _, ex := range examples {
			fmt.Fprintf(&b, "%s\n: %s\n\n", sanitizeCommand(ex[0]), ex[1])
		}
	}

	b.WriteString("# SEE ALSO\n\n")
	b.WriteString("**driveden**(1)\n")

	return b.String()
}

func buildTLDR(cmd, short string, exs [][2]string) string {
	var b strings.Builder
	b.WriteString("# driveden-" + cmd + "\n\n")
	if short != "" {
		b.WriteString("> " + strings.ToUpper(short[:1]) + short[1:] + ".\n")
	} else {
		b.WriteString("> driveden " + cmd + "\n")
	}
	b.WriteString("> More information: https://github.com/staranto/drivedengo.\n\n")

	if len(exs) == 0 {
		b.WriteString("- Show help for the command:\n\n")
		b.WriteString("`driveden " + cmd + " --help`\n")
		return b.String()
	}

	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		desc := strings.TrimSpace(ex[1])
		if desc != "" {
			desc = strings.ToUpper(desc[:1]) + desc[1:]
		}
		b.WriteString("- " + desc + ":\n\n")
		b.WriteString("`" + sanitizeCommand(ex[0]) + "`\n")
	}
	return b.String()
}

// sanitizeCommand compresses runs of whitespace.
func sanitizeCommand(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
