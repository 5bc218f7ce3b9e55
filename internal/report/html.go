package report

import (
	"html"
	"strings"
)

// renderHTML converts Markdown produced by renderMarkdown into HTML using
// a minimal, purpose-built renderer. Per DESIGN.md, the teacher's
// Markdown-rendering dependencies (glamour, go-term-markdown) are terminal
// pretty-printers for an interactive CLI that this spec excludes; this
// renderer targets headings, paragraphs, lists, tables, and fenced code
// blocks only, which is everything renderMarkdown ever emits.
func renderHTML(markdown string) string {
	lines := strings.Split(markdown, "\n")
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>Crash dump report</title></head><body>\n")

	inCodeBlock := false
	inTable := false
	inList := false

	closeList := func() {
		if inList {
			b.WriteString("</ul>\n")
			inList = false
		}
	}
	closeTable := func() {
		if inTable {
			b.WriteString("</table>\n")
			inTable = false
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.HasPrefix(line, "```") {
			closeList()
			closeTable()
			if inCodeBlock {
				b.WriteString("</pre>\n")
			} else {
				b.WriteString("<pre>\n")
			}
			inCodeBlock = !inCodeBlock
			continue
		}
		if inCodeBlock {
			b.WriteString(html.EscapeString(line) + "\n")
			continue
		}

		switch {
		case strings.HasPrefix(line, "### "):
			closeList()
			closeTable()
			b.WriteString("<h3>" + html.EscapeString(line[4:]) + "</h3>\n")
		case strings.HasPrefix(line, "## "):
			closeList()
			closeTable()
			b.WriteString("<h2>" + html.EscapeString(line[3:]) + "</h2>\n")
		case strings.HasPrefix(line, "# "):
			closeList()
			closeTable()
			b.WriteString("<h1>" + html.EscapeString(line[2:]) + "</h1>\n")
		case strings.HasPrefix(line, "- "):
			closeTable()
			if !inList {
				b.WriteString("<ul>\n")
				inList = true
			}
			b.WriteString("<li>" + html.EscapeString(line[2:]) + "</li>\n")
		case strings.HasPrefix(line, "|"):
			closeList()
			if isTableSeparator(line) {
				continue
			}
			if !inTable {
				b.WriteString("<table border=\"1\">\n")
				inTable = true
			}
			writeTableRow(&b, line)
		case strings.TrimSpace(line) == "":
			closeList()
			closeTable()
		default:
			closeList()
			closeTable()
			b.WriteString("<p>" + html.EscapeString(line) + "</p>\n")
		}
	}
	closeList()
	closeTable()

	b.WriteString("</body></html>\n")
	return b.String()
}

func isTableSeparator(line string) bool {
	trimmed := strings.Trim(line, "|")
	for _, r := range trimmed {
		if r != '-' && r != '|' && r != ' ' {
			return false
		}
	}
	return strings.Contains(trimmed, "-")
}

func writeTableRow(b *strings.Builder, line string) {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	b.WriteString("<tr>")
	for _, c := range cells {
		b.WriteString("<td>" + html.EscapeString(strings.TrimSpace(c)) + "</td>")
	}
	b.WriteString("</tr>\n")
}
