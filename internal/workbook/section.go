package workbook

import (
	"strings"

	"github.com/JonMunkholm/fundingdata/internal/tabular"
)

// Section is a titled block within a sheet: a title row whose first cell is
// the section title, a header row, then data rows running to the next
// section title or the end of the sheet. Blank rows inside the block are
// spacing, not its end.
type Section struct {
	Sheet     string
	Title     string
	HeaderRow int      // zero-based row of the header
	Header    []string // trimmed header cells
	FirstRow  int      // zero-based first data row
	LastRow   int      // zero-based last non-blank data row, FirstRow-1 when empty
}

// FindSection locates a section by title (case-insensitive) in the named
// sheet. next lists the titles of the sections that may follow it on the same
// sheet; the first of them found below the title ends the section.
func (w Workbook) FindSection(sheet, title string, next ...string) (Section, bool) {
	s, ok := w.Sheet(sheet)
	if !ok {
		return Section{}, false
	}

	for r := range s {
		if !strings.EqualFold(s.Cell(r, 0), title) {
			continue
		}
		sec := Section{Sheet: sheet, Title: title, HeaderRow: r + 1, FirstRow: r + 2}
		if sec.HeaderRow < len(s) {
			for _, h := range s[sec.HeaderRow] {
				sec.Header = append(sec.Header, strings.TrimSpace(h))
			}
		}

		end := len(s)
		for row := sec.FirstRow; row < len(s); row++ {
			if isTitle(s.Cell(row, 0), next) {
				end = row
				break
			}
		}
		sec.LastRow = sec.FirstRow - 1
		for row := end - 1; row >= sec.FirstRow; row-- {
			if !s.BlankRow(row) {
				sec.LastRow = row
				break
			}
		}
		return sec, true
	}
	return Section{}, false
}

func isTitle(cell string, titles []string) bool {
	if cell == "" {
		return false
	}
	for _, t := range titles {
		if strings.EqualFold(cell, t) {
			return true
		}
	}
	return false
}

// Table converts the section's non-blank data rows into a table whose
// columns are the section header. Each cell keeps its A1 reference.
func (w Workbook) Table(sec Section) *tabular.Table {
	s := w[sec.Sheet]
	t := tabular.New(sec.Title, sec.Header...)
	for r := sec.FirstRow; r <= sec.LastRow; r++ {
		if s.BlankRow(r) {
			continue
		}
		cells := make([]tabular.Cell, len(sec.Header))
		for c := range sec.Header {
			cells[c] = tabular.Cell{
				Value: s.Cell(r, c),
				Ref:   tabular.Ref{Sheet: sec.Sheet, Cell: CellName(r, c)},
			}
		}
		t.Append(cells...)
	}
	return t
}
