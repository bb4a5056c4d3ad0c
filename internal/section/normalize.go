// Package section turns loosely formatted requirement text into an ordered
// mapping of canonical section labels to body text. Requirement documents
// arrive with header markers in several shapes ("SECTION:1. Purpose",
// "SECTION 2. Scope", colon and number split across lines); everything
// downstream keys off the one canonical form "SECTION: N. Title".
package section

import (
	"regexp"
	"strings"
)

// The three rewrite passes are order-dependent: pass 2 assumes markers start
// on their own line, pass 3 assumes markers are already canonical.
var (
	// Pass 1: a header marker not already at the start of a line.
	reMarkerMidLine = regexp.MustCompile(`(^|[^\n])(SECTION\s*:?\s*\d+\.)`)

	// Pass 2: any marker variant, capturing number and title. The title
	// class is letters and spaces; whitespace between the marker and the
	// number may include newlines.
	reMarkerVariant = regexp.MustCompile(`SECTION\s*:?\s*\n*\s*(\d+)\.\s+([A-Za-z ]+)`)

	// Pass 3: a canonical header plus whatever trailing whitespace follows.
	reHeaderTail = regexp.MustCompile(`(SECTION: \d+\. [A-Za-z]+(?: [A-Za-z]+)*)[ \t]*\n*`)

	// reHeader matches one canonical header token. Split relies on it, and
	// external callers can recognize labels with it via HeaderPattern.
	reHeader = regexp.MustCompile(`SECTION: \d+\. [A-Za-z]+(?: [A-Za-z]+)*`)
)

// HeaderPattern reports the canonical header grammar as a regexp source
// string, for callers that need to recognize section labels in free text.
func HeaderPattern() string { return reHeader.String() }

// Normalize rewrites every header marker variant in text into the canonical
// form "SECTION: N. Title" followed by exactly one newline, with the marker
// guaranteed to start on its own line. Text without markers passes through
// unchanged, and normalizing already-normalized text is a no-op.
func Normalize(text string) string {
	// Pass 1: break markers onto their own line.
	text = reMarkerMidLine.ReplaceAllString(text, "$1\n$2")

	// Pass 2: collapse marker variants into canonical form. Titles keep
	// only letters and spaces; interior runs of whitespace collapse to a
	// single space.
	text = reMarkerVariant.ReplaceAllStringFunc(text, func(m string) string {
		sub := reMarkerVariant.FindStringSubmatch(m)
		title := strings.Join(strings.Fields(sub[2]), " ")
		return "SECTION: " + sub[1] + ". " + title
	})

	// Pass 3: exactly one newline after each header, so body text never
	// shares a line with it.
	text = reHeaderTail.ReplaceAllString(text, "$1\n")

	return text
}
