// Package validate checks transformed canonical tables against the schema
// registry.
//
// Validation never stops at the first problem. Every check runs over every
// table and the caller gets the complete list of failures, each addressed
// back to the sheet, section and cell the user needs to fix. An empty list
// means the set is safe to load.
//
// # Checks
//
// Column shape comes first; a table whose columns disagree with the
// registry gets no cell checks. Then, per table: required cells, types,
// dropdown values, composite keys, references to parent rows and date
// ranges.
//
// # Comparing values
//
// Keys and references are compared as the loader will persist them, after
// schema.Coerce. Two cells that only differ by spacing, quotes or a formula
// prefix are the same key, and a reference matches its parent however
// either is typed.
//
// # Order
//
// Failures are ordered by table (registry order), then by check, then by
// row. CellFailure builds failures in the same shape for checks that live
// outside this package.
package validate

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/fundingdata/internal/schema"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
)

// ErrorType classifies a validation failure.
type ErrorType string

const (
	ExtraColumn           ErrorType = "ExtraColumn"
	MissingColumn         ErrorType = "MissingColumn"
	NonNullableConstraint ErrorType = "NonNullableConstraint"
	WrongType             ErrorType = "WrongType"
	InvalidEnumValue      ErrorType = "InvalidEnumValue"
	NonUniqueCompositeKey ErrorType = "NonUniqueCompositeKey"
	OrphanedRow           ErrorType = "OrphanedRow"
	InvalidDateRange      ErrorType = "InvalidDateRange"

	// GenericFailure is a round-specific rule that has no type of its own.
	GenericFailure ErrorType = "GenericFailure"
)

// Failure is one problem in the submitted data.
type Failure struct {
	Sheet       string    `json:"sheet"`
	Section     string    `json:"section"`
	CellIndex   string    `json:"cell_index"`
	Description string    `json:"description"`
	ErrorType   ErrorType `json:"error_type"`

	// Table and Column locate the failure in the canonical set.
	Table  string `json:"-"`
	Column string `json:"-"`
}

func (f Failure) String() string {
	loc := f.Sheet
	if f.CellIndex != "" {
		loc += "!" + f.CellIndex
	}
	return fmt.Sprintf("%s [%s] %s: %s", loc, f.Section, f.ErrorType, f.Description)
}

// Messages shown to the user, per failure type.
const (
	msgRequired  = "The cell is blank but is required."
	msgNumber    = "You entered text instead of a number. Remove any units of measurement and only use numbers, for example, 9."
	msgInteger   = "You entered text instead of a whole number. Only use numbers, for example, 9."
	msgDate      = "You entered text instead of a date. Date must be in numbers."
	msgBool      = "You entered text instead of Yes or No. Select Yes or No from the dropdown list."
	msgEnum      = "You've entered your own content, instead of selecting from the dropdown list provided. Select an option from the dropdown list."
	msgDuplicate = "You entered duplicate data. Remove or replace the duplicate data."
	msgDateRange = "The start date must be before the end date."
)

// Validate runs every check over every registry table in set.
func Validate(reg *schema.Registry, set tabular.Set) []Failure {
	var out []Failure
	for _, def := range reg.Tables() {
		t, ok := set[def.Name]
		if !ok {
			t = tabular.New(def.Name, def.Columns()...)
		}
		v := tableValidator{reg: reg, def: def, t: t, set: set}
		out = append(out, v.run()...)
	}
	return out
}

type tableValidator struct {
	reg *schema.Registry
	def schema.TableDefinition
	t   *tabular.Table
	set tabular.Set
}

func (v tableValidator) run() []Failure {
	// Columns the registry and the table disagree on cannot be checked
	// cell by cell.
	if shape := v.columns(); len(shape) > 0 {
		return shape
	}

	var out []Failure
	for _, check := range []func() []Failure{
		v.required,
		v.types,
		v.enums,
		v.unique,
		v.orphans,
		v.dateRanges,
	} {
		out = append(out, check()...)
	}
	return out
}

func (v tableValidator) failure(i int, col string, typ ErrorType, msg string) Failure {
	return CellFailure(v.def, v.t, i, col, typ, msg)
}

// CellFailure builds a failure for column col of row i in t, addressed to
// the cell the row came from. A negative i addresses the section only.
func CellFailure(def schema.TableDefinition, t *tabular.Table, i int, col string, typ ErrorType, msg string) Failure {
	f := Failure{
		Sheet:       def.Sheet,
		Section:     def.Section,
		Description: msg,
		ErrorType:   typ,
		Table:       def.Name,
		Column:      col,
	}
	if i >= 0 {
		ref := t.Cell(i, col).Ref
		if ref.Sheet != "" {
			f.Sheet = ref.Sheet
		}
		f.CellIndex = ref.Cell
	}
	return f
}

func (v tableValidator) columns() []Failure {
	want := v.def.Columns()
	var out []Failure
	for _, c := range v.t.Columns {
		if !contains(want, c) {
			out = append(out, v.failure(-1, c, ExtraColumn,
				fmt.Sprintf("The column %q is not part of this section. Remove it and use the reporting template provided.", c)))
		}
	}
	for _, c := range want {
		if !v.t.Has(c) {
			out = append(out, v.failure(-1, c, MissingColumn,
				fmt.Sprintf("The column %q is missing from this section. Use the reporting template provided.", c)))
		}
	}
	return out
}

// eachCell visits every non-injected field of every row, row by row.
func (v tableValidator) eachCell(fn func(i int, f schema.FieldSpec, c tabular.Cell)) {
	fields := make([]schema.FieldSpec, 0, len(v.def.Fields))
	for _, f := range v.def.Fields {
		if !f.Injected {
			fields = append(fields, f)
		}
	}
	for i := range v.t.Rows {
		for _, f := range fields {
			fn(i, f, v.t.Cell(i, f.Name))
		}
	}
}

func (v tableValidator) required() []Failure {
	var out []Failure
	v.eachCell(func(i int, f schema.FieldSpec, c tabular.Cell) {
		if f.Required && c.Blank() {
			out = append(out, v.failure(i, f.Name, NonNullableConstraint, msgRequired))
		}
	})
	return out
}

func (v tableValidator) types() []Failure {
	var out []Failure
	v.eachCell(func(i int, f schema.FieldSpec, c tabular.Cell) {
		if c.Blank() || f.Type == schema.FieldText || f.Type == schema.FieldEnum {
			return
		}
		if _, err := schema.Coerce(f, c.Value); err != nil {
			out = append(out, v.failure(i, f.Name, WrongType, typeMessage(f.Type)))
		}
	})
	return out
}

func typeMessage(t schema.FieldType) string {
	switch t {
	case schema.FieldInt:
		return msgInteger
	case schema.FieldDate:
		return msgDate
	case schema.FieldBool:
		return msgBool
	default:
		return msgNumber
	}
}

func (v tableValidator) enums() []Failure {
	var out []Failure
	v.eachCell(func(i int, f schema.FieldSpec, c tabular.Cell) {
		if c.Blank() || f.Type != schema.FieldEnum {
			return
		}
		if _, err := schema.MatchEnum(c.Value, f.EnumValues); err != nil {
			out = append(out, v.failure(i, f.Name, InvalidEnumValue, msgEnum))
		}
	})
	return out
}

// unique flags every row whose key tuple repeats an earlier row's. The
// first occurrence is not flagged. Tuples that are entirely blank are left
// to the required check.
func (v tableValidator) unique() []Failure {
	type dup struct {
		row int
		col string
	}
	var found []dup

	for _, cols := range v.def.Unique {
		seen := make(map[string]bool, v.t.Len())
		for i := range v.t.Rows {
			parts := make([]string, len(cols))
			blank := true
			for j, c := range cols {
				parts[j] = v.key(c, v.t.Value(i, c))
				if parts[j] != "" {
					blank = false
				}
			}
			if blank {
				continue
			}
			key := strings.Join(parts, "\x00")
			if seen[key] {
				found = append(found, dup{row: i, col: cols[0]})
				continue
			}
			seen[key] = true
		}
	}

	// Report in row order across constraints.
	var out []Failure
	for i := range v.t.Rows {
		for _, d := range found {
			if d.row == i {
				out = append(out, v.failure(i, d.col, NonUniqueCompositeKey, msgDuplicate))
			}
		}
	}
	return out
}

// orphans checks that every foreign key value names a parent row of the
// same submission.
func (v tableValidator) orphans() []Failure {
	var out []Failure
	for i := range v.t.Rows {
		for _, fk := range v.def.ForeignKeys {
			val := v.t.Value(i, fk.Column)
			if schema.CleanCell(val) == "" {
				continue
			}
			if v.parentHas(fk, val) {
				continue
			}
			out = append(out, v.failure(i, fk.Column, OrphanedRow, fmt.Sprintf(
				"%s %q does not match any %s reported in this workbook. Check the value is entered correctly.",
				fk.Column, val, fk.ParentColumn,
			)))
		}
	}
	return out
}

// parentHas reports whether the parent table of fk holds a row whose key
// loads as the same value as raw.
func (v tableValidator) parentHas(fk schema.ForeignKey, raw string) bool {
	parent, ok := v.set[fk.ParentTable]
	if !ok {
		return false
	}
	spec := schema.FieldSpec{Name: fk.ParentColumn}
	if def, ok := v.reg.Table(fk.ParentTable); ok {
		if f, ok := def.Field(fk.ParentColumn); ok {
			spec = f
		}
	}
	want := key(spec, raw)
	for _, p := range parent.Column(fk.ParentColumn) {
		if key(spec, p) == want {
			return true
		}
	}
	return false
}

// key renders the value of column col for comparison.
func (v tableValidator) key(col, raw string) string {
	spec, ok := v.def.Field(col)
	if !ok {
		spec = schema.FieldSpec{Name: col}
	}
	return key(spec, raw)
}

// key renders raw as the value the loader persists for spec, so that two
// cells compare equal exactly when they load equal. Cells that do not
// coerce compare by their cleaned text; the type check reports them.
func key(spec schema.FieldSpec, raw string) string {
	v, err := schema.Coerce(spec, raw)
	if err != nil {
		return schema.CleanCell(raw)
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (v tableValidator) dateRanges() []Failure {
	var out []Failure
	for i := range v.t.Rows {
		for _, dr := range v.def.DateRanges {
			start, err := schema.ParseDate(schema.CleanCell(v.t.Value(i, dr.Start)))
			if err != nil {
				continue
			}
			end, err := schema.ParseDate(schema.CleanCell(v.t.Value(i, dr.End)))
			if err != nil {
				continue
			}
			if start.After(end.Time) {
				out = append(out, v.failure(i, dr.Start, InvalidDateRange, msgDateRange))
			}
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
