package schema

// Columns the loader owns on every persisted table.
const (
	// ColumnID is the surrogate key of every persisted row.
	ColumnID = "id"

	// ColumnSubmission references submission_dim.id from tables whose Parent is ParentSubmission.
	ColumnSubmission = "submission_id"

	// ColumnRoundLink references programme_junction.id from tables whose Parent is ParentRoundLink.
	ColumnRoundLink = "programme_junction_id"
)

// FieldType represents the semantic type of a canonical column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldNumeric
	FieldDate
	FieldBool
	FieldEnum
)

func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldInt:
		return "whole number"
	case FieldNumeric:
		return "number"
	case FieldDate:
		return "date"
	case FieldBool:
		return "yes/no"
	case FieldEnum:
		return "dropdown value"
	default:
		return "unknown"
	}
}

// FieldSpec describes one canonical column.
type FieldSpec struct {
	Name       string    // Canonical column name produced by the transformer
	DBColumn   string    // Persisted column name
	Type       FieldType // Semantic type used for coercion
	Required   bool      // Blank cells are a validation failure
	EnumValues []string  // Allowed values for FieldEnum

	// Injected fields are not part of the canonical table. The loader supplies
	// their values (submission code, ingest date, uploader) at persist time.
	Injected bool
}

// Column returns the persisted column name.
func (f FieldSpec) Column() string {
	if f.DBColumn != "" {
		return f.DBColumn
	}
	return f.Name
}

// ForeignKey declares a natural-key reference to a parent table.
type ForeignKey struct {
	Column       string // Canonical lookup column holding the parent's natural key
	ParentTable  string // Canonical parent table name
	ParentColumn string // Canonical natural key column in the parent
	TargetColumn string // Persisted column that receives the parent's surrogate key
	Nullable     bool   // Blank lookup values are allowed and persist as NULL

	// Scoped restricts the lookup to parent rows of the current round-link.
	// Project codes are only unique within one submission.
	Scoped bool
}

// LoadStrategy selects how the loader persists a table's rows.
type LoadStrategy int

const (
	// PlainInsert inserts every row with the injected parent key.
	PlainInsert LoadStrategy = iota

	// MergeIfOlderRound updates the existing row for the natural key in place,
	// keeping its surrogate key, unless the row already appears in a newer round.
	MergeIfOlderRound

	// InsertIfAbsentByNaturalKey inserts only when no row with the natural key exists.
	InsertIfAbsentByNaturalKey
)

func (s LoadStrategy) String() string {
	switch s {
	case PlainInsert:
		return "plain_insert"
	case MergeIfOlderRound:
		return "merge_if_older_round"
	case InsertIfAbsentByNaturalKey:
		return "insert_if_absent"
	default:
		return "unknown"
	}
}

// Parent names the key the loader injects into every row of a table.
type Parent int

const (
	ParentNone Parent = iota
	ParentSubmission
	ParentRoundLink
)

// TableRole marks the tables the version controller treats specially.
type TableRole int

const (
	RoleDetail TableRole = iota
	RoleSubmission
	RoleRoundLink
	RoleProgramme
	RoleDimension
)

// DateRange names a pair of date columns where start must not be after end.
type DateRange struct {
	Start string
	End   string
}

// TableDefinition describes one canonical table.
type TableDefinition struct {
	Name    string // Canonical table name: "Project Details"
	DBTable string // Persisted table: "project_dim"
	Sheet   string // Workbook sheet the data mostly comes from, for failure addressing
	Section string // Human section label shown in validation failures

	Fields      []FieldSpec
	Unique      [][]string // Canonical column tuples that must be unique within the table
	ForeignKeys []ForeignKey
	NaturalKey  []string // Canonical columns identifying a row across submissions
	DateRanges  []DateRange

	Strategy LoadStrategy
	Parent   Parent
	Role     TableRole
}

// Columns returns the canonical column names in declaration order.
// Injected fields are excluded.
func (d TableDefinition) Columns() []string {
	cols := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if !f.Injected {
			cols = append(cols, f.Name)
		}
	}
	return cols
}

// Field returns the spec for a canonical column.
func (d TableDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// ForeignKeyFor returns the foreign key whose lookup column is name.
func (d TableDefinition) ForeignKeyFor(name string) (ForeignKey, bool) {
	for _, fk := range d.ForeignKeys {
		if fk.Column == name {
			return fk, true
		}
	}
	return ForeignKey{}, false
}

// ParentColumn returns the persisted column holding the injected parent key.
func (d TableDefinition) ParentColumn() string {
	switch d.Parent {
	case ParentSubmission:
		return ColumnSubmission
	case ParentRoundLink:
		return ColumnRoundLink
	default:
		return ""
	}
}

// DropsLookup reports whether the lookup column of fk is removed after
// resolution rather than overwritten in place.
func (d TableDefinition) DropsLookup(fk ForeignKey) bool {
	f, ok := d.Field(fk.Column)
	if !ok {
		return true
	}
	return f.Column() != fk.TargetColumn
}

// PersistedColumns returns the exact set of columns the loader writes for
// this table, in a stable order: the surrogate key, the field columns (minus
// dropped lookup columns), the surrogate columns of dropped lookups, then the
// injected parent column.
func (d TableDefinition) PersistedColumns() []string {
	cols := []string{ColumnID}
	for _, f := range d.Fields {
		if fk, ok := d.ForeignKeyFor(f.Name); ok && d.DropsLookup(fk) {
			continue
		}
		cols = append(cols, f.Column())
	}
	for _, fk := range d.ForeignKeys {
		if d.DropsLookup(fk) {
			cols = append(cols, fk.TargetColumn)
		}
	}
	if pc := d.ParentColumn(); pc != "" {
		cols = append(cols, pc)
	}
	return cols
}
