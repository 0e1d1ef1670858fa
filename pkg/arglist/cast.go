// SPDX-License-Identifier: MPL-2.0

package arglist

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
)

// Cast interprets value as a bool, then an int, then a float64, falling back to
// the string itself. Only "true" and "false" (any case) are booleans.
func Cast(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// CastAll applies Cast to every value in a.
func (a Arguments) CastAll() ([]any, map[string]any) {
	positional := make([]any, len(a.Positional))
	for i, v := range a.Positional {
		positional[i] = Cast(v)
	}
	keyword := make(map[string]any, len(a.Keyword))
	for k, v := range a.Keyword {
		keyword[k] = Cast(v)
	}
	return positional, keyword
}

func sortedKeys(m map[string]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
