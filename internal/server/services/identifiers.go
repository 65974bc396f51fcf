package services

import (
	"strconv"
	"strings"
)

// NormalizeIdentifiers trims each profile identifier, drops empty ones and
// removes repeats, keeping first-seen order. Comma-separated entries are
// split, so both ["a,b"] and ["a", "b"] are accepted.
func NormalizeIdentifiers(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			id := strings.TrimSpace(part)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// splitIdentifiers separates lookup keys. Every identifier is tried as a
// machine name; those that parse as an integer are also tried as an id.
func splitIdentifiers(ids []string) (names []string, nums []int64) {
	names = append(names, ids...)
	for _, id := range ids {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			nums = append(nums, n)
		}
	}
	return names, nums
}
