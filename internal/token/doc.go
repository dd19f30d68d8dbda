// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package token owns the single bearer credential used against the upstream
// API. It acquires the credential lazily, renews it shortly before expiry and
// coalesces concurrent renewals into one upstream round trip.
package token
