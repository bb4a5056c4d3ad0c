package markdown

import "fmt"

// AutoSectionTitle is the title given to a synthesized parent heading when a
// subsection appears before its section.
const AutoSectionTitle = "(Auto) Section"

// Block is one typed unit of a parsed document: heading, subheading,
// paragraph, code block or table.
type Block interface {
	block()
}

// Heading is a top-level numbered section, one "N. Title" line.
type Heading struct {
	Number int
	Title  string
}

// Subheading is a numbered subsection, one "N.M Title" line.
type Subheading struct {
	Main  int
	Sub   int
	Title string
}

// Span is a run of paragraph text with uniform emphasis.
type Span struct {
	Text string
	Bold bool
}

// Paragraph is one content line broken into emphasis spans.
type Paragraph struct {
	Spans []Span
}

// CodeBlock holds the lines between a pair of fence markers.
type CodeBlock struct {
	Lines []string
}

// Table holds a pipe-delimited table. Rows may be ragged; cell counts are
// not reconciled against the header row.
type Table struct {
	Headers []string
	Rows    [][]string
}

func (Heading) block()    {}
func (Subheading) block() {}
func (Paragraph) block()  {}
func (CodeBlock) block()  {}
func (Table) block()      {}

// Text returns the heading as it appears in rendered output, "N. Title".
func (h Heading) Text() string {
	return fmt.Sprintf("%d. %s", h.Number, h.Title)
}

// Text returns the subheading as it appears in rendered output, "N.M Title".
func (s Subheading) Text() string {
	return fmt.Sprintf("%d.%d %s", s.Main, s.Sub, s.Title)
}

// Text returns the paragraph's plain text with emphasis markers removed.
func (p Paragraph) Text() string {
	var out string
	for _, s := range p.Spans {
		out += s.Text
	}
	return out
}

// Document is the ordered block sequence produced by a Parser.
type Document struct {
	Blocks []Block
}
