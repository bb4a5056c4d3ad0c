package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/abapscribe/scribe/internal/markdown"
	"github.com/abapscribe/scribe/internal/render"
)

var _ render.Sink = (*Builder)(nil)

// Font sizes are in half-points, the unit w:sz uses.
const (
	titleSize      = "32"
	headingSize    = "28"
	subheadingSize = "24"
	codeSize       = "20"
	codeDocSize    = "21"

	headingColor = "0000FF"
	codeFont     = "Courier New"
	codeDocFont  = "Consolas"
)

// Builder assembles a document body and serializes it as a DOCX container.
// It implements the render sink, applying the presentation rules: headings
// bold, underlined and colored; subheadings bold; code in a fixed-width
// font; tables grid-bordered with a bold header row.
type Builder struct {
	elements []any
}

// NewBuilder returns a builder whose document starts with a title heading.
func NewBuilder(title string) *Builder {
	b := &Builder{}
	b.elements = append(b.elements, paragraph{Runs: []run{{
		Props:   &runProps{Bold: &flag{}, Size: &val{Val: titleSize}},
		Content: []any{text{Value: title, Space: "preserve"}},
	}}})
	return b
}

// AddHeading appends a section heading paragraph.
func (b *Builder) AddHeading(txt string) error {
	b.elements = append(b.elements, paragraph{Runs: []run{{
		Props: &runProps{
			Bold:      &flag{},
			Color:     &val{Val: headingColor},
			Size:      &val{Val: headingSize},
			Underline: &val{Val: "single"},
		},
		Content: []any{text{Value: txt, Space: "preserve"}},
	}}})
	return nil
}

// AddSubheading appends a subsection heading paragraph.
func (b *Builder) AddSubheading(txt string) error {
	b.elements = append(b.elements, paragraph{Runs: []run{{
		Props:   &runProps{Bold: &flag{}, Size: &val{Val: subheadingSize}},
		Content: []any{text{Value: txt, Space: "preserve"}},
	}}})
	return nil
}

// AddParagraph appends one paragraph, a bold run per bold span.
func (b *Builder) AddParagraph(spans []markdown.Span) error {
	p := paragraph{}
	for _, s := range spans {
		r := run{Content: []any{text{Value: s.Text, Space: "preserve"}}}
		if s.Bold {
			r.Props = &runProps{Bold: &flag{}}
		}
		p.Runs = append(p.Runs, r)
	}
	b.elements = append(b.elements, p)
	return nil
}

// AddCodeBlock appends the lines as one fixed-width paragraph with explicit
// line breaks.
func (b *Builder) AddCodeBlock(lines []string) error {
	b.elements = append(b.elements, codeParagraph(strings.Join(lines, "\n"), codeFont, codeSize))
	return nil
}

// AddTable appends a grid-bordered table. Row cell counts are taken as
// given; short rows produce short table rows.
func (b *Builder) AddTable(headers []string, rows [][]string) error {
	t := table{
		Props: tableProps{Borders: gridBorders()},
		Grid:  tableGrid{Cols: make([]gridCol, len(headers))},
	}

	header := tableRow{}
	for _, h := range headers {
		header.Cells = append(header.Cells, cell(h, true))
	}
	t.Rows = append(t.Rows, header)

	for _, row := range rows {
		tr := tableRow{}
		for _, c := range row {
			tr.Cells = append(tr.Cells, cell(c, false))
		}
		t.Rows = append(t.Rows, tr)
	}

	b.elements = append(b.elements, t)
	return nil
}

func cell(txt string, bold bool) tableCell {
	r := run{Content: []any{text{Value: txt, Space: "preserve"}}}
	if bold {
		r.Props = &runProps{Bold: &flag{}}
	}
	return tableCell{Paras: []paragraph{{Runs: []run{r}}}}
}

// codeParagraph renders source text as a single run, turning newlines into
// w:br elements so Word keeps the line structure.
func codeParagraph(src, font, size string) paragraph {
	r := run{Props: &runProps{
		Fonts: &runFonts{ASCII: font, HAnsi: font},
		Size:  &val{Val: size},
	}}
	for i, line := range strings.Split(src, "\n") {
		if i > 0 {
			r.Content = append(r.Content, lineBreak{})
		}
		r.Content = append(r.Content, text{Value: line, Space: "preserve"})
	}
	return paragraph{Runs: []run{r}}
}

// Bytes serializes the document as a DOCX zip container.
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the DOCX container to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	doc := document{
		NS:   wordNamespace,
		Body: body{Elements: b.elements},
	}
	marshaled, err := xml.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal document part: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(packageRelsXML)},
		{"word/document.xml", append([]byte(xml.Header), marshaled...)},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return 0, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := f.Write(part.data); err != nil {
			return 0, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close container: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// NewCodeDocument returns a document holding one source listing in a
// monospaced font under a title heading.
func NewCodeDocument(title, code string) *Builder {
	b := NewBuilder(title)
	b.elements = append(b.elements, codeParagraph(code, codeDocFont, codeDocSize))
	return b
}
