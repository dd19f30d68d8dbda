// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package output filters, sorts and renders GI API documents for the CLI in
// text, json, yaml or raw form.
package output
