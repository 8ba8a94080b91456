package ingest

import (
	"fmt"
	"strings"

	"github.com/voclabs/vocd/internal/domain"
)

// Column auto-detection candidates, checked in order.
var (
	titleCandidates = []string{"title", "Title", "name", "Name", "subject", "Subject"}
	bodyCandidates  = []string{"body", "Body", "content", "Content", "text", "Text", "description", "Description"}
)

// columnMapping resolves which source columns feed the post title and body.
// An empty bodyColumn means the body is synthesized from all remaining columns.
type columnMapping struct {
	titleColumn string
	bodyColumn  string
}

// detectColumns picks title and body columns for a source, preferring explicit
// overrides, then well-known names, then the first column for the title.
func detectColumns(first domain.SourceRow, titleOverride, bodyOverride string) columnMapping {
	m := columnMapping{titleColumn: titleOverride, bodyColumn: bodyOverride}

	if m.titleColumn == "" {
		for _, c := range titleCandidates {
			if _, ok := first.Values[c]; ok {
				m.titleColumn = c
				break
			}
		}
		if m.titleColumn == "" && len(first.Columns) > 0 {
			m.titleColumn = first.Columns[0]
		}
	}

	if m.bodyColumn == "" {
		for _, c := range bodyCandidates {
			if _, ok := first.Values[c]; ok {
				m.bodyColumn = c
				break
			}
		}
	}

	return m
}

// extract derives the title and body text of one row. Without a dedicated
// body column, the body is every non-title column joined as "col: val | ...",
// falling back to the title itself.
func (m columnMapping) extract(row domain.SourceRow) (title, body string) {
	title = row.Get(m.titleColumn)

	if m.bodyColumn != "" {
		if v := row.Get(m.bodyColumn); v != "" {
			return title, v
		}
	}

	parts := make([]string, 0, len(row.Columns))
	for _, col := range row.Columns {
		if col == m.titleColumn {
			continue
		}
		if v := row.Values[col]; v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", col, v))
		}
	}
	if len(parts) > 0 {
		return title, strings.Join(parts, " | ")
	}
	return title, title
}
