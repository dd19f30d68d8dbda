// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cache provides a small process-local response cache keyed by
// caller-supplied strings. Entries carry an absolute expiry and are evicted
// lazily when a read finds them stale; there is no background sweep.
package cache
