// Package strings provides string helpers shared by the zone registry
package strings

import (
	std "strings"

	"golang.org/x/text/cases"
)

// ZoneKey folds an IANA zone id into a registry key
// "  america/new_york " and "America/New_York" share a key
func ZoneKey(id string) string {
	return cases.Fold().String(std.TrimSpace(id))
}
