package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/abapscribe/scribe/internal/markdown"
)

// documentXML serializes the builder and returns the document part text.
func documentXML(t *testing.T, b *Builder) string {
	t.Helper()
	data, err := b.Bytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a zip container: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		if !names[want] {
			t.Fatalf("container missing part %s, have %v", want, names)
		}
	}

	f, err := zr.Open("word/document.xml")
	if err != nil {
		t.Fatalf("open document part: %v", err)
	}
	defer f.Close()
	part, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read document part: %v", err)
	}
	return string(part)
}

func TestBuilderTitleAndHeadings(t *testing.T) {
	b := NewBuilder("FUNCTIONAL SPECIFICATION")
	if err := b.AddHeading("1. Purpose"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.AddSubheading("1.1 Overview"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := documentXML(t, b)

	if !strings.Contains(doc, "FUNCTIONAL SPECIFICATION") {
		t.Error("expected title text in document part")
	}
	if !strings.Contains(doc, "1. Purpose") {
		t.Error("expected heading text in document part")
	}
	if !strings.Contains(doc, `<w:color w:val="0000FF">`) &&
		!strings.Contains(doc, `<w:color w:val="0000FF"></w:color>`) {
		t.Errorf("expected heading color run property, got:\n%s", doc)
	}
	if !strings.Contains(doc, `<w:u w:val="single">`) &&
		!strings.Contains(doc, `<w:u w:val="single"></w:u>`) {
		t.Error("expected heading underline run property")
	}
	if !strings.Contains(doc, `<w:sz w:val="24">`) &&
		!strings.Contains(doc, `<w:sz w:val="24"></w:sz>`) {
		t.Error("expected subheading size run property")
	}
}

func TestBuilderParagraphSpans(t *testing.T) {
	b := NewBuilder("T")
	err := b.AddParagraph([]markdown.Span{
		{Text: "Use the "},
		{Text: "ALV Grid", Bold: true},
		{Text: " control."},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := documentXML(t, b)
	if !strings.Contains(doc, "Use the ") || !strings.Contains(doc, "ALV Grid") {
		t.Error("expected span text in document part")
	}
	// The bold run carries properties; the plain spans around it do not.
	if strings.Count(doc, "<w:b>")+strings.Count(doc, "<w:b/>") < 1 {
		t.Error("expected a bold run for the emphasized span")
	}
}

func TestBuilderCodeBlock(t *testing.T) {
	b := NewBuilder("T")
	if err := b.AddCodeBlock([]string{"REPORT zdemo.", "WRITE matnr."}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := documentXML(t, b)
	if !strings.Contains(doc, `w:ascii="Courier New"`) {
		t.Error("expected Courier New font on code run")
	}
	if !strings.Contains(doc, "<w:br>") && !strings.Contains(doc, "<w:br/>") &&
		!strings.Contains(doc, "<w:br></w:br>") {
		t.Error("expected explicit line break between code lines")
	}
	if !strings.Contains(doc, "REPORT zdemo.") || !strings.Contains(doc, "WRITE matnr.") {
		t.Error("expected code lines in document part")
	}
}

func TestBuilderTable(t *testing.T) {
	b := NewBuilder("T")
	err := b.AddTable(
		[]string{"Field", "Description"},
		[][]string{{"MATNR", "Material number"}, {"WERKS"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := documentXML(t, b)
	if !strings.Contains(doc, "<w:tbl>") {
		t.Fatal("expected a table element")
	}
	if got := strings.Count(doc, "<w:tr>"); got != 3 {
		t.Errorf("expected 3 table rows (header + 2 data), got %d", got)
	}
	// Ragged second data row keeps its single cell.
	if got := strings.Count(doc, "<w:tc>"); got != 5 {
		t.Errorf("expected 5 cells, got %d", got)
	}
	if !strings.Contains(doc, `<w:top w:val="single"`) {
		t.Error("expected grid borders on table")
	}
}

func TestNewCodeDocument(t *testing.T) {
	b := NewCodeDocument("ABAP Code", "REPORT zdemo.\nWRITE matnr.")
	doc := documentXML(t, b)

	if !strings.Contains(doc, "ABAP Code") {
		t.Error("expected title in code document")
	}
	if !strings.Contains(doc, `w:ascii="Consolas"`) {
		t.Error("expected Consolas font on code listing")
	}
	if !strings.Contains(doc, `<w:sz w:val="21">`) &&
		!strings.Contains(doc, `<w:sz w:val="21"></w:sz>`) {
		t.Error("expected 10.5pt size on code listing")
	}
}

func TestBuilderXMLEscaping(t *testing.T) {
	b := NewBuilder("T")
	if err := b.AddParagraph([]markdown.Span{{Text: "a < b & c > d"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := documentXML(t, b)
	if strings.Contains(doc, "a < b") {
		t.Error("expected markup characters to be escaped")
	}
	if !strings.Contains(doc, "a &lt; b &amp; c &gt; d") {
		t.Errorf("expected escaped text, got:\n%s", doc)
	}
}
