// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/staranto/drivedengo/internal/attrs"
)

type sortKey struct {
	name          string
	descending    bool
	caseSensitive bool
}

func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		k := sortKey{}
		for len(field) > 0 && (field[0] == '-' || field[0] == '!') {
			if field[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			field = field[1:]
		}
		if field == "" {
			continue
		}
		k.name = field
		keys = append(keys, k)
	}
	return keys
}

// SortDataset sorts rows in place by a comma separated list of output keys.
// A leading - sorts descending and a leading ! compares strings case
// sensitively. Numbers compare numerically and missing values sort first.
func SortDataset(data []map[string]interface{}, spec string) {
	sortRows(data, parseSortSpec(spec))
}

// SortDatasetByAttrs is SortDataset for rows built from al. Sort keys may name
// an attr by output or source key; anything else is an error.
func SortDatasetByAttrs(data []map[string]interface{}, al attrs.AttrList, spec string) error {
	keys := parseSortSpec(spec)
	for i, k := range keys {
		attr, ok := lookupAttr(al, k.name)
		if !ok {
			return fmt.Errorf("sort key %q is not an attr, add it with --attrs (use !%s to hide it)", k.name, k.name)
		}
		keys[i].name = attr.OutputKey
	}
	sortRows(data, keys)
	return nil
}

func sortRows(data []map[string]interface{}, keys []sortKey) {
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(data, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(data[i][k.name], data[j][k.name], k.caseSensitive)
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b interface{}, caseSensitive bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	sa, sb := InterfaceToString(a), InterfaceToString(b)
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}
