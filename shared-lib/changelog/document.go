// Package changelog models the per-day Markdown changelog document: a
// free-form preamble followed by one table of change rows.
package changelog

import (
	"strings"
	"time"
)

const (
	// HeaderLine introduces the change table. Parsing only looks for the
	// "Time (UTC)" marker, so hand-aligned headers are accepted as well.
	HeaderLine    = "| Time (UTC)             | Files Modified                    | Changes (Addition/Deletion) |"
	SeparatorLine = "|------------------------|-----------------------------------|-----------------------------|"

	headerMarker   = "Time (UTC)"
	documentPrefix = "CHANGELOG_"
	documentSuffix = ".md"
	dateLayout     = "2006-01-02"
)

// DocumentName returns the changelog file name for the calendar day of t.
func DocumentName(t time.Time) string {
	return documentPrefix + t.Format(dateLayout) + documentSuffix
}

// Document is a parsed changelog. Lines before the table header are the
// Preamble and lines after the row block are the Trailer; both are kept
// verbatim.
type Document struct {
	Preamble  []string
	Header    string
	Separator string
	Rows      []string
	Trailer   []string
	HasTable  bool
}

// New returns a fresh document for day with the standard title block and an
// empty table.
func New(day time.Time) *Document {
	return &Document{
		Preamble: []string{
			"# Daily Changelog",
			"",
			"This file logs the changes made on " + day.Format(dateLayout) + ".",
			"",
		},
		Header:    HeaderLine,
		Separator: SeparatorLine,
		HasTable:  true,
	}
}

// Parse splits content into preamble, table and trailer.
//
// The first line starting with "|" that contains "Time (UTC)" is the table
// header. Inside the row block only a header followed by a separator starts
// another table, which is left untouched inside the trailer; a row whose
// path merely contains the marker stays a row. A missing
// separator row is restored with SeparatorLine. Content without a header
// parses into a document with HasTable=false and everything in Preamble.
func Parse(content string) *Document {
	lines := splitLines(content)
	doc := &Document{}

	headerIdx := -1
	for i, line := range lines {
		if isHeaderLine(line) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		doc.Preamble = lines
		return doc
	}

	doc.HasTable = true
	doc.Preamble = lines[:headerIdx]
	doc.Header = lines[headerIdx]

	next := headerIdx + 1
	if next < len(lines) && isSeparatorLine(lines[next]) {
		doc.Separator = lines[next]
		next++
	} else {
		doc.Separator = SeparatorLine
	}

	for next < len(lines) && isRowLine(lines[next]) && !startsTable(lines, next) {
		doc.Rows = append(doc.Rows, lines[next])
		next++
	}
	doc.Trailer = lines[next:]
	return doc
}

// Append adds rows after the existing rows. A document without a table gets
// a new header and separator after its free-form content.
func (d *Document) Append(rows ...string) {
	if len(rows) == 0 {
		return
	}
	if !d.HasTable {
		d.Preamble = trimTrailingBlank(d.Preamble)
		if len(d.Preamble) > 0 {
			d.Preamble = append(d.Preamble, "")
		}
		d.Header = HeaderLine
		d.Separator = SeparatorLine
		d.HasTable = true
	}
	d.Rows = append(d.Rows, rows...)
}

// String renders the document with exactly one trailing newline.
func (d *Document) String() string {
	lines := make([]string, 0, len(d.Preamble)+len(d.Rows)+len(d.Trailer)+2)
	lines = append(lines, d.Preamble...)
	if d.HasTable {
		lines = append(lines, d.Header, d.Separator)
		lines = append(lines, d.Rows...)
		lines = append(lines, d.Trailer...)
	}
	lines = trimTrailingBlank(lines)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Merge appends rows to the table in content and returns the new content.
// With no rows the content is returned unchanged.
func Merge(content string, rows []string) string {
	if len(rows) == 0 {
		return content
	}
	doc := Parse(content)
	doc.Append(rows...)
	return doc.String()
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

func trimTrailingBlank(lines []string) []string {
	end := len(lines)
	for end > 0 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[:end]
}

func isRowLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

func isHeaderLine(line string) bool {
	return isRowLine(line) && strings.Contains(line, headerMarker)
}

func startsTable(lines []string, i int) bool {
	return isHeaderLine(lines[i]) && i+1 < len(lines) && isSeparatorLine(lines[i+1])
}

func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") || !strings.Contains(trimmed, "-") {
		return false
	}
	return strings.Trim(trimmed, "|-: ") == ""
}
