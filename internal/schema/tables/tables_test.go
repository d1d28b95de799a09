package tables

import (
	"slices"
	"testing"

	"github.com/JonMunkholm/fundingdata/internal/schema"
)

func TestDefaultRegistryCompiles(t *testing.T) {
	reg, err := schema.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if reg.Len() != 16 {
		t.Errorf("Len = %d, want 16", reg.Len())
	}

	order := make(map[string]int)
	for i, d := range reg.Tables() {
		order[d.Name] = i
	}

	before := [][2]string{
		{SubmissionRef, ProgrammeJunction},
		{OrganisationRef, ProgrammeRef},
		{ProgrammeRef, ProgrammeJunction},
		{ProgrammeJunction, ProjectDetails},
		{ProjectDetails, ProjectProgress},
		{ProjectDetails, RiskRegister},
		{OutputsRef, OutputData},
		{OutcomeRef, OutcomeData},
	}
	for _, pair := range before {
		if order[pair[0]] >= order[pair[1]] {
			t.Errorf("%s must load before %s", pair[0], pair[1])
		}
	}
}

func TestLookupColumnsResolveOrDrop(t *testing.T) {
	reg, err := schema.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	tests := []struct {
		table   string
		present []string
		absent  []string
	}{
		{ProgrammeRef, []string{"organisation_id", "programme_id"}, []string{"organisation"}},
		{ProgrammeJunction, []string{"programme_id", "submission_id"}, nil},
		{OutputData, []string{"output_id", "project_id", "programme_junction_id"}, []string{"output"}},
		{OutcomeData, []string{"outcome_id", "project_id"}, []string{"outcome"}},
		{ProjectProgress, []string{"project_id", "programme_junction_id"}, nil},
	}

	for _, tt := range tests {
		def, ok := reg.Table(tt.table)
		if !ok {
			t.Fatalf("table %s not registered", tt.table)
		}
		cols := def.PersistedColumns()
		for _, c := range tt.present {
			if !slices.Contains(cols, c) {
				t.Errorf("%s: PersistedColumns %v missing %q", tt.table, cols, c)
			}
		}
		for _, c := range tt.absent {
			if slices.Contains(cols, c) {
				t.Errorf("%s: PersistedColumns %v should not contain %q", tt.table, cols, c)
			}
		}
	}
}

func TestRoles(t *testing.T) {
	reg, err := schema.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if got := reg.Submission().Name; got != SubmissionRef {
		t.Errorf("Submission = %s, want %s", got, SubmissionRef)
	}
	if got := reg.RoundLink().Name; got != ProgrammeJunction {
		t.Errorf("RoundLink = %s, want %s", got, ProgrammeJunction)
	}
	if got := reg.Programme().Name; got != ProgrammeRef {
		t.Errorf("Programme = %s, want %s", got, ProgrammeRef)
	}
}
