package extract

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/sopkb/internal/models"
)

const columns = 4

var headerCells = [columns]string{"system", "process", "instructions", "rationale"}

// ParseRows turns a model reply into one RowResult per candidate line.
// Fence lines, blank lines, header rows and markdown separator rows are
// dropped silently. A line with the wrong number of columns becomes a
// rejected RowResult; it never stops the lines after it.
func ParseRows(reply string) []models.RowResult {
	var results []models.RowResult

	lines := strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}

		cells := splitCells(line)
		if isSeparator(cells) || isHeader(cells) {
			continue
		}

		if len(cells) != columns {
			results = append(results, models.RowResult{Err: &models.ParseError{
				Line:   i + 1,
				Text:   line,
				Reason: fmt.Sprintf("expected %d columns, got %d", columns, len(cells)),
			}})
			continue
		}

		results = append(results, models.RowResult{Row: models.Row{
			System:       cells[0],
			Process:      cells[1],
			Instructions: cells[2],
			Rationale:    cells[3],
		}})
	}

	return results
}

// splitCells splits on pipes. A line starting with a pipe is a markdown
// table row: exactly one leading pipe and one trailing pipe are stripped
// before counting. On plain lines a trailing pipe is an empty Rationale.
func splitCells(line string) []string {
	if strings.HasPrefix(line, "|") {
		line = strings.TrimPrefix(line, "|")
		line = strings.TrimSuffix(line, "|")
	}
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = trimCell(c)
	}
	return cells
}

func trimCell(c string) string {
	c = strings.TrimSpace(c)
	for _, q := range []string{`"`, "'", "`"} {
		if len(c) >= 2 && strings.HasPrefix(c, q) && strings.HasSuffix(c, q) {
			c = strings.TrimSpace(c[1 : len(c)-1])
		}
	}
	return c
}

// isSeparator matches markdown table rules such as |---|:---:|---|---|.
func isSeparator(cells []string) bool {
	sawDash := false
	for _, c := range cells {
		if c == "" {
			continue
		}
		if strings.Trim(c, ":-") != "" {
			return false
		}
		sawDash = true
	}
	return sawDash
}

func isHeader(cells []string) bool {
	if len(cells) != columns {
		return false
	}
	for i, c := range cells {
		if !strings.EqualFold(strings.Trim(c, "*_ "), headerCells[i]) {
			return false
		}
	}
	return true
}
