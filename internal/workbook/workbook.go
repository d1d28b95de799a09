// Package workbook holds a submitted spreadsheet as plain rows of strings and
// reads and writes it in .xlsx form.
//
// The ingest pipeline never touches excelize types: everything downstream
// works on Workbook, which maps sheet names to rows. Row and column indexes
// are zero-based throughout; CellName converts them to A1 references for
// human-facing messages.
package workbook

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// ErrUnreadable is returned when the upload is not a readable .xlsx file.
var ErrUnreadable = errors.New("file is not a readable xlsx workbook")

// Sheet is a sheet's rows. Rows may have different lengths.
type Sheet [][]string

// Workbook maps sheet names to their rows.
type Workbook map[string]Sheet

// Sheet returns the named sheet.
func (w Workbook) Sheet(name string) (Sheet, bool) {
	s, ok := w[name]
	return s, ok
}

// Names returns the sheet names, sorted.
func (w Workbook) Names() []string {
	names := make([]string, 0, len(w))
	for n := range w {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Cell returns the trimmed value at row, col or "" when out of range.
func (s Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s) || col < 0 || col >= len(s[row]) {
		return ""
	}
	return strings.TrimSpace(s[row][col])
}

// BlankRow reports whether every cell of row is empty.
func (s Sheet) BlankRow(row int) bool {
	if row < 0 || row >= len(s) {
		return true
	}
	for _, c := range s[row] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// CellName converts zero-based coordinates to an A1 reference.
func CellName(row, col int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return ""
	}
	return name
}

// Parse reads an .xlsx workbook. Every sheet is read in full with cell
// values formatted the way Excel displays them.
func Parse(r io.Reader) (Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(ErrUnreadable, err.Error())
	}
	defer f.Close()

	wb := make(Workbook)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, errors.Wrapf(err, "read sheet %q", name)
		}
		wb[name] = rows
	}
	return wb, nil
}

// ParseBytes is Parse over an in-memory file.
func ParseBytes(b []byte) (Workbook, error) {
	return Parse(bytes.NewReader(b))
}

// Write encodes wb as an .xlsx file. Sheets are written in name order.
func Write(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	names := wb.Names()
	if len(names) == 0 {
		return errors.New("workbook has no sheets")
	}

	first := f.GetSheetName(0)
	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return errors.Wrapf(err, "name sheet %q", name)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "create sheet %q", name)
		}

		for r, row := range wb[name] {
			if len(row) == 0 {
				continue
			}
			values := make([]any, len(row))
			for c, v := range row {
				values[c] = v
			}
			if err := f.SetSheetRow(name, CellName(r, 0), &values); err != nil {
				return errors.Wrapf(err, "write %s row %d", name, r+1)
			}
		}
	}

	return f.Write(w)
}

// Bytes is Write into a buffer.
func Bytes(wb Workbook) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, wb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
