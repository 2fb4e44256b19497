// Package strings holds helpers for list-valued query parameters.
package strings

import (
	"strings"
)

// SplitList expands comma-separated values, trimming and lowercasing each
// element and dropping blanks and repeats. Order of first appearance is kept.
//
//	SplitList([]string{"Pending, in_progress", "pending", " "})
//	// []string{"pending", "in_progress"}
func SplitList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}
