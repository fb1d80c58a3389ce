package repository

import (
	"sort"
	"time"
)

// timestampLayout is how SQLite stores document timestamps.
const timestampLayout = time.RFC3339Nano

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// sortedKeys gives multi-document saves a stable write order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
