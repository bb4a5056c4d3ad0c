package markdown

import "regexp"

var reBold = regexp.MustCompile(`\*\*(.+?)\*\*`)

// parseSpans breaks one content line into plain and bold spans. Emphasis
// markers without a closing pair are left in the text as-is.
func parseSpans(text string) []Span {
	var spans []Span
	cursor := 0
	for _, loc := range reBold.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > cursor {
			spans = append(spans, Span{Text: text[cursor:loc[0]]})
		}
		spans = append(spans, Span{Text: text[loc[2]:loc[3]], Bold: true})
		cursor = loc[1]
	}
	if cursor < len(text) {
		spans = append(spans, Span{Text: text[cursor:]})
	}
	return spans
}
