package schema

import (
	"reflect"
	"strings"
	"testing"

	"github.com/go-faster/errors"
)

func testDefs() []TableDefinition {
	return []TableDefinition{
		{
			Name: "Child", DBTable: "child", Parent: ParentRoundLink,
			Fields: []FieldSpec{
				{Name: "Project ID", DBColumn: "project_id"},
				{Name: "Category", DBColumn: "category"},
				{Name: "Amount", DBColumn: "amount", Type: FieldNumeric},
			},
			ForeignKeys: []ForeignKey{
				{Column: "Project ID", ParentTable: "Project", ParentColumn: "Project ID", TargetColumn: "project_id", Scoped: true},
				{Column: "Category", ParentTable: "Category_Ref", ParentColumn: "Name", TargetColumn: "category_id"},
			},
		},
		{
			Name: "Project", DBTable: "project", Parent: ParentRoundLink,
			Fields: []FieldSpec{{Name: "Project ID", DBColumn: "project_id"}},
		},
		{
			Name: "Link", DBTable: "link", Parent: ParentSubmission, Role: RoleRoundLink,
			Fields: []FieldSpec{{Name: "Programme ID", DBColumn: "programme_id"}},
			ForeignKeys: []ForeignKey{
				{Column: "Programme ID", ParentTable: "Programme", ParentColumn: "Programme ID", TargetColumn: "programme_id"},
			},
		},
		{
			Name: "Category_Ref", DBTable: "category", Strategy: InsertIfAbsentByNaturalKey, Role: RoleDimension,
			Fields:     []FieldSpec{{Name: "Name", DBColumn: "name"}},
			NaturalKey: []string{"Name"},
		},
		{
			Name: "Programme", DBTable: "programme", Strategy: MergeIfOlderRound, Role: RoleProgramme,
			Fields:     []FieldSpec{{Name: "Programme ID", DBColumn: "programme_id"}},
			NaturalKey: []string{"Programme ID"},
		},
		{
			Name: "Submission", DBTable: "submission", Role: RoleSubmission,
			Fields: []FieldSpec{
				{Name: "Reporting Round", DBColumn: "reporting_round", Type: FieldInt},
				{Name: "Code", DBColumn: "submission_id", Injected: true},
			},
		},
	}
}

func tableNames(defs []TableDefinition) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

func TestCompileOrdersParentsFirst(t *testing.T) {
	reg, err := Compile(testDefs())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	got := tableNames(reg.Tables())
	index := make(map[string]int, len(got))
	for i, n := range got {
		index[n] = i
	}

	edges := [][2]string{
		{"Submission", "Link"},
		{"Programme", "Link"},
		{"Link", "Project"},
		{"Project", "Child"},
		{"Category_Ref", "Child"},
	}
	for _, e := range edges {
		if index[e[0]] > index[e[1]] {
			t.Errorf("%s ordered after %s in %v", e[0], e[1], got)
		}
	}

	if reg.Submission().Name != "Submission" || reg.RoundLink().Name != "Link" || reg.Programme().Name != "Programme" {
		t.Errorf("role lookup returned wrong tables")
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	first, err := Compile(testDefs())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Compile(testDefs())
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		if !reflect.DeepEqual(tableNames(first.Tables()), tableNames(again.Tables())) {
			t.Fatalf("order changed between compilations")
		}
	}
}

func TestCompileDetectsCycle(t *testing.T) {
	defs := testDefs()
	// Make the project table depend on its own child.
	defs[1].Fields = append(defs[1].Fields, FieldSpec{Name: "Category", DBColumn: "category"})
	defs[1].ForeignKeys = []ForeignKey{
		{Column: "Category", ParentTable: "Child", ParentColumn: "Category", TargetColumn: "child_id"},
	}

	_, err := Compile(defs)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Compile error = %v, want ErrCycle", err)
	}
	if !strings.Contains(err.Error(), "Project") || !strings.Contains(err.Error(), "Child") {
		t.Errorf("cycle error %q should name the tables involved", err)
	}
}

func TestCompileRejectsBadReferences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]TableDefinition)
		want   string
	}{
		{
			name: "unknown parent table",
			mutate: func(d []TableDefinition) {
				d[0].ForeignKeys[1].ParentTable = "Missing"
			},
			want: "unknown table",
		},
		{
			name: "unknown parent column",
			mutate: func(d []TableDefinition) {
				d[0].ForeignKeys[1].ParentColumn = "Missing"
			},
			want: "unknown column",
		},
		{
			name: "unique column not declared",
			mutate: func(d []TableDefinition) {
				d[0].Unique = [][]string{{"Nope"}}
			},
			want: "unique column",
		},
		{
			name: "merge without natural key",
			mutate: func(d []TableDefinition) {
				d[4].NaturalKey = nil
			},
			want: "requires a natural key",
		},
		{
			name: "missing submission role",
			mutate: func(d []TableDefinition) {
				d[5].Role = RoleDetail
			},
			want: "no table declares role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := testDefs()
			tt.mutate(defs)
			_, err := Compile(defs)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Compile error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestPersistedColumns(t *testing.T) {
	defs := testDefs()
	child := defs[0]

	got := child.PersistedColumns()
	want := []string{"id", "project_id", "amount", "category_id", "programme_junction_id"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PersistedColumns = %v, want %v", got, want)
	}

	// Project ID resolves in place, Category is dropped for category_id.
	if child.DropsLookup(child.ForeignKeys[0]) {
		t.Error("Project ID lookup should be replaced in place")
	}
	if !child.DropsLookup(child.ForeignKeys[1]) {
		t.Error("Category lookup should be dropped")
	}

	sub := defs[5]
	if cols := sub.Columns(); !reflect.DeepEqual(cols, []string{"Reporting Round"}) {
		t.Errorf("Columns = %v, injected fields must be excluded", cols)
	}
	if cols := sub.PersistedColumns(); !reflect.DeepEqual(cols, []string{"id", "reporting_round", "submission_id"}) {
		t.Errorf("PersistedColumns = %v, injected fields must be persisted", cols)
	}
}

func TestRegisterPanicsOnDuplicate(t *testing.T) {
	saved := Registered()
	Clear()
	defer func() {
		Clear()
		for _, d := range saved {
			Register(d)
		}
	}()

	Register(TableDefinition{Name: "A", DBTable: "a"})
	defer func() {
		if recover() == nil {
			t.Error("Register should panic on duplicate name")
		}
	}()
	Register(TableDefinition{Name: "A", DBTable: "a"})
}
