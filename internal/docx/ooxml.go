// Package docx writes WordprocessingML documents from scratch. A DOCX file
// is a zip container holding XML parts; the structures here cover the small
// subset of the document part this service emits: paragraphs with formatted
// runs, explicit line breaks, and grid-bordered tables.
package docx

import "encoding/xml"

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type document struct {
	XMLName xml.Name `xml:"w:document"`
	NS      string   `xml:"xmlns:w,attr"`
	Body    body     `xml:"w:body"`
}

type body struct {
	// Elements holds paragraphs and tables in document order; each element
	// carries its own XMLName.
	Elements []any
	Sect     sectProps `xml:"w:sectPr"`
}

type sectProps struct{}

type paragraph struct {
	XMLName xml.Name `xml:"w:p"`
	Runs    []run
}

type run struct {
	XMLName xml.Name  `xml:"w:r"`
	Props   *runProps `xml:"w:rPr,omitempty"`
	// Content alternates text and br elements.
	Content []any
}

// runProps fields follow the schema order for rPr children.
type runProps struct {
	Fonts     *runFonts `xml:"w:rFonts,omitempty"`
	Bold      *flag     `xml:"w:b,omitempty"`
	Color     *val      `xml:"w:color,omitempty"`
	Size      *val      `xml:"w:sz,omitempty"`
	Underline *val      `xml:"w:u,omitempty"`
}

type runFonts struct {
	ASCII string `xml:"w:ascii,attr"`
	HAnsi string `xml:"w:hAnsi,attr"`
}

type flag struct{}

type val struct {
	Val string `xml:"w:val,attr"`
}

type text struct {
	XMLName xml.Name `xml:"w:t"`
	Space   string   `xml:"xml:space,attr,omitempty"`
	Value   string   `xml:",chardata"`
}

type lineBreak struct {
	XMLName xml.Name `xml:"w:br"`
}

type table struct {
	XMLName xml.Name   `xml:"w:tbl"`
	Props   tableProps `xml:"w:tblPr"`
	Grid    tableGrid  `xml:"w:tblGrid"`
	Rows    []tableRow
}

type tableProps struct {
	Borders tableBorders `xml:"w:tblBorders"`
}

type tableBorders struct {
	Top     borderEdge `xml:"w:top"`
	Left    borderEdge `xml:"w:left"`
	Bottom  borderEdge `xml:"w:bottom"`
	Right   borderEdge `xml:"w:right"`
	InsideH borderEdge `xml:"w:insideH"`
	InsideV borderEdge `xml:"w:insideV"`
}

type borderEdge struct {
	Val   string `xml:"w:val,attr"`
	Size  string `xml:"w:sz,attr"`
	Color string `xml:"w:color,attr"`
}

type tableGrid struct {
	Cols []gridCol `xml:"w:gridCol"`
}

type gridCol struct{}

type tableRow struct {
	XMLName xml.Name `xml:"w:tr"`
	Cells   []tableCell
}

type tableCell struct {
	XMLName xml.Name `xml:"w:tc"`
	Paras   []paragraph
}

func gridBorders() tableBorders {
	edge := borderEdge{Val: "single", Size: "4", Color: "auto"}
	return tableBorders{
		Top: edge, Left: edge, Bottom: edge, Right: edge,
		InsideH: edge, InsideV: edge,
	}
}

// Static package parts. Only the document part varies.
const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>
`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>
`
