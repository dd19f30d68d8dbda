// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package gi is a thin client for the Golf Intelligence course API: the
// client-credentials exchange, course group search and course group GPS.
package gi
