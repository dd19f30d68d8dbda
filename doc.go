// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// driveden is a caching proxy in front of the Golf Intelligence course API.
// It keeps the API credentials on the server, shares one bearer token across
// requests and caches search and GPS responses for a short while. The same
// binary doubles as a command line client for the API.
package main
