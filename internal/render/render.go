// Package render commits a parsed document to an output sink, one sink call
// per block, in document order. Presentation (fonts, colors, borders) is the
// sink's business; this package only guarantees that nothing is skipped,
// reordered or merged.
package render

import (
	"fmt"

	"github.com/abapscribe/scribe/internal/markdown"
)

// Sink is the capability surface a rich-document builder must expose.
type Sink interface {
	AddHeading(text string) error
	AddSubheading(text string) error
	AddParagraph(spans []markdown.Span) error
	AddCodeBlock(lines []string) error
	AddTable(headers []string, rows [][]string) error
}

// Render walks doc and mutates sink exactly once per block. Sink errors are
// returned unchanged.
func Render(doc *markdown.Document, sink Sink) error {
	for _, b := range doc.Blocks {
		var err error
		switch b := b.(type) {
		case markdown.Heading:
			err = sink.AddHeading(b.Text())
		case markdown.Subheading:
			err = sink.AddSubheading(b.Text())
		case markdown.Paragraph:
			err = sink.AddParagraph(b.Spans)
		case markdown.CodeBlock:
			err = sink.AddCodeBlock(b.Lines)
		case markdown.Table:
			err = sink.AddTable(b.Headers, b.Rows)
		default:
			err = fmt.Errorf("unknown block type %T", b)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
