package transform

import (
	"slices"

	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/schema/tables"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// Raw template headers that differ from their canonical names.
var (
	projectProgressHeaders = map[string]string{
		"Delivery Status":           "Project Delivery Status",
		"Commentary":                "Commentary on Status and RAG Ratings",
		"Upcoming Milestone":        "Most Important Upcoming Comms Milestone",
		"Upcoming Milestone Date":   "Date of Most Important Upcoming Comms Milestone",
		"Adjustment Request Status": "Project Adjustment Request Status",
		"Current Delivery Stage":    "Current Project Delivery Stage",
	}

	fundingHeaders = map[string]string{
		"Spend": "Spend for Reporting Period",
	}

	outputHeaders = map[string]string{
		"Additional Info": "Additional Information",
	}

	riskHeaders = map[string]string{
		"Risk Owner": "Risk Owner/Role",
	}
)

// sections are the per-round readers for the blocks whose layout changes
// between templates. Everything else is shared.
type sections struct {
	projectProgress func(workbook.Workbook) (*tabular.Table, error)
	funding         func(workbook.Workbook) (*tabular.Table, error)
	outputs         func(workbook.Workbook) (*tabular.Table, error)
	outcomes        func(workbook.Workbook) (*tabular.Table, error)
}

// assemble runs the shared extraction around the round-specific readers and
// conforms the result.
func (b base) assemble(wb workbook.Workbook, s sections) (tabular.Set, error) {
	a, err := readAdmin(wb)
	if err != nil {
		return nil, err
	}
	set := b.header(a)

	type step struct {
		table string
		read  func(workbook.Workbook) (*tabular.Table, error)
	}
	steps := []step{
		{tables.ProjectDetails, func(wb workbook.Workbook) (*tabular.Table, error) {
			return read(wb, SheetAdmin, SectionProjects, nil)
		}},
		{tables.ProgrammeProgress, func(wb workbook.Workbook) (*tabular.Table, error) {
			return read(wb, SheetProgress, SectionProgrammeProgress, nil)
		}},
		{tables.ProjectProgress, s.projectProgress},
		{tables.Funding, s.funding},
		{tables.FundingComments, func(wb workbook.Workbook) (*tabular.Table, error) {
			return read(wb, SheetFunding, SectionComments, nil)
		}},
		{tables.PrivateInvestments, func(wb workbook.Workbook) (*tabular.Table, error) {
			return read(wb, SheetPSI, SectionPSI, nil)
		}},
		{tables.OutputData, s.outputs},
		{tables.OutcomeData, s.outcomes},
		{tables.RiskRegister, func(wb workbook.Workbook) (*tabular.Table, error) {
			return read(wb, SheetRisks, SectionRisks, riskHeaders)
		}},
	}

	for _, st := range steps {
		t, err := st.read(wb)
		if err != nil {
			return nil, err
		}
		set[st.table] = t
	}

	// Output and outcome dimensions are the distinct names referenced by
	// the data rows.
	set[tables.OutputsRef] = set[tables.OutputData].
		Rename(map[string]string{"Output": "Output Name", "Category": "Output Category"}).
		Distinct(tables.OutputsRef, "Output Name", "Output Category")
	set[tables.OutcomeRef] = set[tables.OutcomeData].
		Rename(map[string]string{"Outcome": "Outcome Name", "Category": "Outcome Category"}).
		Distinct(tables.OutcomeRef, "Outcome Name", "Outcome Category")

	return b.conform(set), nil
}

// round1 reads the first template: long-format funding, outputs and
// outcomes, and no adjustment or delivery stage columns.
type round1 struct{ base }

func (r round1) Checks() []precheck.Check {
	return r.checks()
}

func (r round1) Transform(wb workbook.Workbook) (tabular.Set, error) {
	return r.assemble(wb, sections{
		projectProgress: longProjectProgress,
		funding:         longFunding,
		outputs:         longOutputs,
		outcomes:        longOutcomes,
	})
}

// round2Columns were added to project progress by the second template.
var round2Columns = []string{"Project Adjustment Request Status", "Current Project Delivery Stage"}

// longProjectProgress reads the first template's project progress, which
// predates the round 2 columns.
func longProjectProgress(wb workbook.Workbook) (*tabular.Table, error) {
	t, err := read(wb, SheetProgress, SectionProjectProgress, projectProgressHeaders)
	if err != nil {
		return nil, err
	}
	keep := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !slices.Contains(round2Columns, c) {
			keep = append(keep, c)
		}
	}
	return t.Conform(t.Name, keep), nil
}

func longFunding(wb workbook.Workbook) (*tabular.Table, error) {
	return read(wb, SheetFunding, SectionFunding, fundingHeaders)
}

func longOutputs(wb workbook.Workbook) (*tabular.Table, error) {
	return read(wb, SheetOutputs, SectionOutputs, outputHeaders)
}

func longOutcomes(wb workbook.Workbook) (*tabular.Table, error) {
	return read(wb, SheetOutcomes, SectionOutcomes, nil)
}
