// Package markdown parses line-oriented specification prose into an ordered
// sequence of typed blocks. The grammar is deliberately small: numbered
// headings ("3. Scope") and subheadings ("3.1 Overview"), fenced code
// blocks, pipe-delimited tables, and paragraphs with **bold** runs. It is
// not a Markdown implementation; input that leans on anything richer falls
// through as plain paragraph text.
package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reHeading    = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	reSubheading = regexp.MustCompile(`^(\d+)\.(\d+)\s+(.+)$`)
	reTableRow   = regexp.MustCompile(`^\|(.+?)\|$`)
)

// Parser is a single-pass line state machine. All intermediate state lives
// on the struct; a Parser is reusable but not safe for concurrent use.
type Parser struct {
	blocks []Block

	// current is the most recent heading line, committed lazily on the
	// next flush so that consecutive duplicate headings collapse.
	current    *Heading
	hasCurrent bool

	pending    []string // content lines awaiting paragraph conversion
	codeLines  []string
	tableLines []string
	inCode     bool
	inTable    bool

	seenHeadings map[string]bool // rendered heading text already emitted
	knownMain    map[int]bool    // main numbers with a committed heading
}

// NewParser returns a Parser ready for use.
func NewParser() *Parser {
	return &Parser{}
}

// Parse consumes text and returns its document model. State from any
// previous call is discarded.
func (p *Parser) Parse(text string) *Document {
	p.reset()

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p.processLine(line)
	}

	// End of input: flush accumulated content, then commit whatever is
	// still buffered in an unterminated fence or table.
	p.flush()
	if p.inCode && len(p.codeLines) > 0 {
		p.commitCode()
	}
	if p.inTable && len(p.tableLines) > 0 {
		p.commitTable()
	}

	return &Document{Blocks: p.blocks}
}

func (p *Parser) reset() {
	p.blocks = nil
	p.current = nil
	p.hasCurrent = false
	p.pending = nil
	p.codeLines = nil
	p.tableLines = nil
	p.inCode = false
	p.inTable = false
	p.seenHeadings = make(map[string]bool)
	p.knownMain = make(map[int]bool)
}

func (p *Parser) processLine(line string) {
	// Inside a fence every line is code until the closing fence, so fenced
	// content is never misread as tables or headings.
	if p.inCode {
		if strings.HasPrefix(line, "```") {
			p.commitCode()
			return
		}
		p.codeLines = append(p.codeLines, line)
		return
	}

	if strings.HasPrefix(line, "```") {
		// An opening fence terminates an open table (it is not a pipe
		// row) and commits queued content, keeping blocks in source
		// order before the code block lands.
		if p.inTable {
			p.flush()
			p.commitTable()
		}
		p.flush()
		p.inCode = true
		return
	}

	if reTableRow.MatchString(line) {
		p.tableLines = append(p.tableLines, line)
		p.inTable = true
		return
	}
	if p.inTable {
		// The table is over. Pending content is flushed first so the
		// document keeps its source order, then the line that ended the
		// table is processed as ordinary input.
		p.flush()
		p.commitTable()
		p.processLine(line)
		return
	}

	if m := reHeading.FindStringSubmatch(line); m != nil {
		p.flush()
		n, _ := strconv.Atoi(m[1])
		p.current = &Heading{Number: n, Title: m[2]}
		p.hasCurrent = true
		p.knownMain[n] = true
		return
	}

	if m := reSubheading.FindStringSubmatch(line); m != nil {
		p.flush()
		main, _ := strconv.Atoi(m[1])
		sub, _ := strconv.Atoi(m[2])

		if !p.knownMain[main] {
			auto := Heading{Number: main, Title: AutoSectionTitle}
			if !p.seenHeadings[auto.Text()] {
				p.blocks = append(p.blocks, auto)
				p.seenHeadings[auto.Text()] = true
				p.knownMain[main] = true
			}
		}

		// Subheadings commit directly; they are never buffered.
		p.blocks = append(p.blocks, Subheading{Main: main, Sub: sub, Title: m[3]})
		return
	}

	p.pending = append(p.pending, line)
}

// flush commits the queued heading (once per distinct heading text) and
// converts pending content lines into paragraphs.
func (p *Parser) flush() {
	if p.hasCurrent && !p.seenHeadings[p.current.Text()] {
		p.blocks = append(p.blocks, *p.current)
		p.seenHeadings[p.current.Text()] = true
	}
	for _, line := range p.pending {
		p.blocks = append(p.blocks, Paragraph{Spans: parseSpans(line)})
	}
	p.pending = nil
}

func (p *Parser) commitCode() {
	p.blocks = append(p.blocks, CodeBlock{Lines: p.codeLines})
	p.codeLines = nil
	p.inCode = false
}

func (p *Parser) commitTable() {
	lines := p.tableLines
	p.tableLines = nil
	p.inTable = false

	t := Table{Headers: cells(lines[0], headerCell)}
	// The second line is the header separator by convention.
	if len(lines) > 2 {
		for _, line := range lines[2:] {
			t.Rows = append(t.Rows, cells(line, strings.TrimSpace))
		}
	}
	p.blocks = append(p.blocks, t)
}

// cells splits a pipe row and trims each kept cell with trim. Cells that are
// empty after whitespace trimming are dropped, which is what makes ragged
// rows possible.
func cells(line string, trim func(string) string) []string {
	var out []string
	for _, c := range strings.Split(line, "|") {
		if strings.TrimSpace(c) == "" {
			continue
		}
		out = append(out, trim(c))
	}
	return out
}

// headerCell trims spaces and emphasis asterisks, so "**Name**" and "Name"
// produce the same header.
func headerCell(c string) string {
	return strings.Trim(c, " *")
}
