// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package command defines the driveden command set. It wires flags,
// validators and actions for the serve, search, gps and token subcommands.
package command
