package tabular

// reshape.go holds the column operations the round transformers are built
// from: rename, constant injection, outer merge against a skeleton, blank-row
// pruning and unpivoting of period columns.

// Rename returns a copy whose columns are renamed through mapping. Columns not
// in mapping keep their name.
func (t *Table) Rename(mapping map[string]string) *Table {
	out := t.Clone()
	for i, c := range out.Columns {
		if to, ok := mapping[c]; ok {
			out.Columns[i] = to
		}
	}
	return out
}

// WithConstant returns a copy with col set to value on every row. The column is
// appended when absent. Injected cells carry no source ref.
func (t *Table) WithConstant(col, value string) *Table {
	out := t.Clone()
	idx := out.Index(col)
	if idx < 0 {
		out.Columns = append(out.Columns, col)
		for i := range out.Rows {
			out.Rows[i] = append(out.Rows[i], Cell{Value: value})
		}
		return out
	}
	for i := range out.Rows {
		out.Rows[i][idx] = Cell{Value: value}
	}
	return out
}

// Conform outer-merges the table against an empty skeleton with the given
// columns. The result has exactly those columns in that order: columns the
// table lacks come out blank, columns the skeleton lacks are dropped.
func (t *Table) Conform(name string, columns []string) *Table {
	out := New(name, columns...)
	pos := make([]int, len(columns))
	for i, c := range columns {
		pos[i] = t.Index(c)
	}
	for _, r := range t.Rows {
		row := make(Row, len(columns))
		for i, p := range pos {
			if p >= 0 {
				row[i] = r[p]
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// DropBlankRows removes rows whose cells are blank in every column except the
// named key columns. Key columns hold injected material such as programme
// codes, so a row with only keys carries no submitted data.
func (t *Table) DropBlankRows(keys ...string) *Table {
	skip := make(map[int]bool, len(keys))
	for _, k := range keys {
		if idx := t.Index(k); idx >= 0 {
			skip[idx] = true
		}
	}

	out := New(t.Name, t.Columns...)
	for _, r := range t.Rows {
		for i, c := range r {
			if skip[i] || c.Blank() {
				continue
			}
			out.Rows = append(out.Rows, append(Row(nil), r...))
			break
		}
	}
	return out
}

// Melt unpivots value columns into rows. Each source row yields one row per
// value column, holding the id columns, the value column's header under
// varName and the cell under valueName.
func (t *Table) Melt(ids, values []string, varName, valueName string) *Table {
	cols := append(append([]string(nil), ids...), varName, valueName)
	out := New(t.Name, cols...)

	idPos := make([]int, len(ids))
	for i, c := range ids {
		idPos[i] = t.Index(c)
	}
	for _, r := range t.Rows {
		for _, v := range values {
			vp := t.Index(v)
			if vp < 0 {
				continue
			}
			row := make(Row, 0, len(cols))
			for _, p := range idPos {
				if p >= 0 {
					row = append(row, r[p])
				} else {
					row = append(row, Cell{})
				}
			}
			row = append(row, Cell{Value: v}, r[vp])
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Filter returns a copy holding only the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.Name, t.Columns...)
	for i, r := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, append(Row(nil), r...))
		}
	}
	return out
}

// Distinct returns a table of the unique non-blank combinations of cols, in
// first-seen order. Refs of the first occurrence are kept.
func (t *Table) Distinct(name string, cols ...string) *Table {
	out := New(name, cols...)
	seen := make(map[string]bool)
	for i := range t.Rows {
		key := ""
		blank := true
		row := make(Row, len(cols))
		for j, c := range cols {
			cell := t.Cell(i, c)
			row[j] = cell
			key += "\x00" + cell.Value
			if !cell.Blank() {
				blank = false
			}
		}
		if blank || seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, row)
	}
	return out
}
