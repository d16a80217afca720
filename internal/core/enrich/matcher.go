// Package enrich applies external animal metadata (CSV exports from colony
// databases) to the indexed tree. External IDs rarely match directory names
// exactly, so matching is pluggable: the default strategy compares a trailing
// digit suffix of configurable length.
package enrich

import (
	"fmt"
	"strings"
)

// Matcher decides whether an external animal ID refers to an indexed animal
// directory name.
type Matcher interface {
	Match(externalID, animalDir string) bool
}

// SuffixMatcher matches when the last N characters of the external ID and
// the directory name are equal. This tolerates prefixes like facility codes
// on either side.
type SuffixMatcher struct {
	N int
}

func (m SuffixMatcher) Match(externalID, animalDir string) bool {
	n := m.N
	if n <= 0 {
		n = 5
	}
	a := strings.TrimSpace(externalID)
	b := strings.TrimSpace(animalDir)
	if len(a) < n || len(b) < n {
		return strings.EqualFold(a, b)
	}
	return strings.EqualFold(a[len(a)-n:], b[len(b)-n:])
}

// ExactMatcher matches on case-insensitive equality.
type ExactMatcher struct{}

func (ExactMatcher) Match(externalID, animalDir string) bool {
	return strings.EqualFold(strings.TrimSpace(externalID), strings.TrimSpace(animalDir))
}

// ResolveAnimal finds the single indexed animal the external ID refers to.
// Zero matches returns ("", false, nil); more than one is an error because
// silently picking one would attach records to the wrong animal.
func ResolveAnimal(m Matcher, externalID string, animals []string) (string, bool, error) {
	var hits []string
	for _, a := range animals {
		if m.Match(externalID, a) {
			hits = append(hits, a)
		}
	}
	switch len(hits) {
	case 0:
		return "", false, nil
	case 1:
		return hits[0], true, nil
	default:
		return "", false, fmt.Errorf("ambiguous animal ID %q: matches %s", externalID, strings.Join(hits, ", "))
	}
}
