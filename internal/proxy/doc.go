// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package proxy is the HTTP face of driveden. It serves the browser-facing
// course search and GPS endpoints from the response cache, falling back to
// one authorized upstream call per miss.
package proxy
