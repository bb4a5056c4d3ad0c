package abap

import (
	"errors"
	"strings"

	"github.com/abapscribe/scribe/internal/section"
)

// NoRequirementsSentinel is recorded as a unit's requirement text when none
// of its mapped sections carry content. The unit is skipped by generation
// and the sentinel is carried through to the assembled program; the other
// units proceed normally.
const NoRequirementsSentinel = "[Error: No requirements found]"

// ErrNoRequirements reports a document where no mapped section has any
// content at all.
var ErrNoRequirements = errors.New("no valid sections found in input payload")

// GroupRequirements builds each unit's requirement text by joining the
// bodies of its mapped sections with blank lines, in mapping order. Every
// unit in UnitOrder gets an entry; units whose mapped sections are all
// absent or blank get the sentinel.
func GroupRequirements(m *section.Map, mapping UnitMapping) map[string]string {
	grouped := make(map[string]string, len(UnitOrder))
	for _, unit := range UnitOrder {
		var bodies []string
		for _, label := range mapping[unit] {
			if body, ok := m.Get(label); ok {
				bodies = append(bodies, body)
			}
		}
		joined := strings.Join(bodies, "\n\n")
		if strings.TrimSpace(joined) == "" {
			joined = NoRequirementsSentinel
		}
		grouped[unit] = joined
	}
	return grouped
}

// CombineRequirements joins every mapped section body across all units, in
// unit order, into the single requirement text the whole-document path and
// the coverage analyses run on. A section mapped to several units
// contributes once per unit. Returns ErrNoRequirements when the combined
// text is blank.
func CombineRequirements(m *section.Map, mapping UnitMapping) (string, error) {
	var bodies []string
	for _, unit := range UnitOrder {
		for _, label := range mapping[unit] {
			if body, ok := m.Get(label); ok {
				bodies = append(bodies, body)
			}
		}
	}
	combined := strings.TrimSpace(strings.Join(bodies, "\n\n"))
	if combined == "" {
		return "", ErrNoRequirements
	}
	return combined, nil
}
