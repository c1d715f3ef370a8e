// Package natsort orders labels so that embedded numbers compare by value.
package natsort

import (
	"sort"
	"strings"
)

// Compare returns -1, 0 or 1. Digit runs are compared as integers of any
// length, everything else as literal text. A full tie falls back to plain
// lexical order so that distinct labels never compare equal.
func Compare(a, b string) int {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		xd, yd := isDigit(x[0]), isDigit(y[0])
		switch {
		case xd && yd:
			if c := compareNumeric(x, y); c != 0 {
				return c
			}
		case xd != yd:
			// numbers sort before text at the same position
			if xd {
				return -1
			}
			return 1
		default:
			if c := strings.Compare(x, y); c != 0 {
				return c
			}
		}
	}
	switch {
	case len(ca) < len(cb):
		return -1
	case len(ca) > len(cb):
		return 1
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Sort sorts labels in place.
func Sort(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return Less(labels[i], labels[j])
	})
}

// SortFunc sorts items in place by the natural order of key(item).
func SortFunc[T any](items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(key(items[i]), key(items[j]))
	})
}

func chunks(s string) []string {
	var out []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[start]) {
			out = append(out, s[start:i])
			start = i
		}
	}
	return out
}

// compareNumeric compares two digit runs without converting them, so runs
// longer than an int64 still order correctly.
func compareNumeric(x, y string) int {
	tx := strings.TrimLeft(x, "0")
	ty := strings.TrimLeft(y, "0")
	if len(tx) != len(ty) {
		if len(tx) < len(ty) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(tx, ty); c != 0 {
		return c
	}
	// same value: fewer leading zeros first
	switch {
	case len(x) < len(y):
		return -1
	case len(x) > len(y):
		return 1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
