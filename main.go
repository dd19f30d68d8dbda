// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/staranto/drivedengo/internal/command"
	"github.com/staranto/drivedengo/internal/config"
	mylog "github.com/staranto/drivedengo/internal/log"
	"github.com/staranto/drivedengo/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// A .env file is optional. Values already in the environment win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, err)
	}

	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an argument set from the config file. The first
// @name argument after the command selects <command>.<name>; without one
// <command>.defaults is used. The set's arguments take the place of the @name
// (or directly follow the command) so explicit flags still override them.
func mangleArguments(args []string) []string {
	// We know the first two args are going to be the executable and command.
	preamble := make([]string, 2, len(args)+4)
	copy(preamble, args[:2])

	if strings.HasPrefix(args[1], "-") {
		return args
	}

	// Short-circuit for --help/-h.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(preamble, "--help")
		}
	}

	set := "defaults"
	rest := make([]string, 0, len(args)-2)
	idx := 0
	for _, a := range args[2:] {
		if set == "defaults" && len(a) > 1 && strings.HasPrefix(a, "@") {
			set = a[1:]
			idx = len(rest)
			continue
		}
		rest = append(rest, a)
	}

	setArgs, err := config.GetStringSlice(args[1] + "." + set)
	if err != nil {
		log.Debugf("no argument set %s.%s: %v", args[1], set, err)
	}

	var expanded []string
	for _, arg := range setArgs {
		expanded = append(expanded, strings.Fields(arg)...)
	}

	result := append(preamble, rest[:idx]...)
	result = append(result, expanded...)
	result = append(result, rest[idx:]...)

	log.Debugf("set=%s, args=%v", set, result)
	return result
}
