package fulfillment

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// namesMatch reports whether a claimed name plausibly refers to the same
// person as an actual full name. Tiers, in order:
//
//  1. exact case-insensitive match
//  2. token overlap: any claimed-name token appears inside the actual name
//  3. prefix: either folded name is a prefix of the other
//
// The overlap tier is deliberately loose (unrelated people sharing a
// first name will match); the upstream system prefers recall here.
func namesMatch(claimed, actual string) bool {
	a := foldCaser.String(strings.TrimSpace(claimed))
	b := foldCaser.String(strings.TrimSpace(actual))
	if a == "" || b == "" {
		return false
	}

	if a == b {
		return true
	}

	for _, token := range strings.Fields(a) {
		if strings.Contains(b, token) {
			return true
		}
	}

	return strings.HasPrefix(b, a) || strings.HasPrefix(a, b)
}

// normalizeSubject canonicalizes a subject name for grouping.
func normalizeSubject(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// datesMatch compares a claimed date against an actual one by substring
// containment in either direction, because formats vary by source
// ("2026-03-14" vs "2026-03-14T09:30:00Z").
func datesMatch(claimed, actual string) bool {
	a := strings.TrimSpace(claimed)
	b := strings.TrimSpace(actual)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
