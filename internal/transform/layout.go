package transform

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/schema/tables"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// Template sheets.
const (
	SheetStart    = "1 - Start Here"
	SheetAdmin    = "2 - Project Admin"
	SheetProgress = "3 - Programme Progress"
	SheetFunding  = "4a - Funding Profiles"
	SheetPSI      = "4b - PSI"
	SheetOutputs  = "5 - Project Outputs"
	SheetOutcomes = "6 - Outcomes"
	SheetRisks    = "7 - Risk Register"
)

// Section titles, as they appear in column A above each block.
const (
	SectionAdmin             = "Programme Admin"
	SectionProjects          = "Project Details"
	SectionProgrammeProgress = "Programme-Wide Progress Summary"
	SectionProjectProgress   = "Projects Progress Summary"
	SectionFunding           = "Funding Profiles"
	SectionComments          = "Comments"
	SectionPSI               = "Private Sector Investment"
	SectionOutputs           = "Project Outputs"
	SectionOutcomes          = "Outcome Indicators"
	SectionRisks             = "Risk Register"
)

// sheetSections lists the sections of each sheet in template order. A
// section's data runs until the next title on its sheet.
var sheetSections = map[string][]string{
	SheetAdmin:    {SectionAdmin, SectionProjects},
	SheetProgress: {SectionProgrammeProgress, SectionProjectProgress},
	SheetFunding:  {SectionFunding, SectionComments},
	SheetPSI:      {SectionPSI},
	SheetOutputs:  {SectionOutputs},
	SheetOutcomes: {SectionOutcomes},
	SheetRisks:    {SectionRisks},
}

// following returns the titles that may appear below title on sheet.
func following(sheet, title string) []string {
	var out []string
	for _, t := range sheetSections[sheet] {
		if t != title {
			out = append(out, t)
		}
	}
	return out
}

// Fixed cells on the start sheet.
const (
	rowVersion = 1
	rowPeriod  = 2
	colValue   = 1
)

// Admin block labels. The admin section is a Field/Value list; its first
// rows are fixed so that prechecks can address them directly.
const (
	LabelFundType      = "Fund Type"
	LabelPlaceName     = "Place Name"
	LabelProgrammeID   = "Programme ID"
	LabelProgrammeName = "Programme Name"
	LabelOrganisation  = "Organisation"
)

// AdminLabels is the fixed order of the first admin rows.
var AdminLabels = []string{
	LabelFundType,
	LabelPlaceName,
	LabelProgrammeID,
	LabelProgrammeName,
	LabelOrganisation,
}

// adminRow returns the zero-based sheet row of an admin label. The section
// title sits on row 0 and its header on row 1.
func adminRow(label string) int {
	for i, l := range AdminLabels {
		if l == label {
			return i + 2
		}
	}
	return -1
}

// admin is the parsed Field/Value block. Values keep their cell refs.
type admin struct {
	fields []string
	cells  map[string]tabular.Cell
}

func (a admin) cell(label string) tabular.Cell {
	return a.cells[label]
}

func (a admin) value(label string) string {
	return a.cells[label].Value
}

func readAdmin(wb workbook.Workbook) (admin, error) {
	sec, err := section(wb, SheetAdmin, SectionAdmin)
	if err != nil {
		return admin{}, err
	}
	t := wb.Table(sec)

	a := admin{cells: make(map[string]tabular.Cell, t.Len())}
	for i := range t.Rows {
		label := t.Value(i, "Field")
		if label == "" {
			continue
		}
		if _, dup := a.cells[label]; !dup {
			a.fields = append(a.fields, label)
		}
		a.cells[label] = t.Cell(i, "Value")
	}
	return a, nil
}

// section finds a required section or reports it as a pre-transformation
// failure.
func section(wb workbook.Workbook, sheet, title string) (workbook.Section, error) {
	sec, ok := wb.FindSection(sheet, title, following(sheet, title)...)
	if !ok {
		return workbook.Section{}, precheck.Fail(fmt.Sprintf(
			"The %q section is missing from the %q tab. Use the reporting template provided without moving or removing sections.",
			title, sheet,
		))
	}
	return sec, nil
}

// read extracts a section and renames its raw headers.
func read(wb workbook.Workbook, sheet, title string, rename map[string]string) (*tabular.Table, error) {
	sec, err := section(wb, sheet, title)
	if err != nil {
		return nil, err
	}
	t := wb.Table(sec)
	if rename != nil {
		t = t.Rename(rename)
	}
	return t, nil
}

// header builds the tables that describe the submission itself.
func (b base) header(a admin) tabular.Set {
	set := tabular.Set{}
	round := strconv.Itoa(b.round.Number)

	sub := tabular.New(tables.SubmissionRef, tables.ColReportingRound, "Reporting Period Start", "Reporting Period End")
	sub.AppendValues(round, b.round.PeriodStart.Format("2006-01-02"), b.round.PeriodEnd.Format("2006-01-02"))
	set[tables.SubmissionRef] = sub

	org := tabular.New(tables.OrganisationRef, tables.ColOrganisation, "Geography")
	geography := ""
	if p, ok := b.ref.Place(a.value(LabelPlaceName)); ok {
		geography = p.Geography
	}
	org.Append(a.cell(LabelOrganisation), tabular.Cell{Value: geography})
	set[tables.OrganisationRef] = org

	fund := a.cell(LabelFundType)
	fund.Value = b.fundCode(fund.Value)
	prog := tabular.New(tables.ProgrammeRef, tables.ColProgrammeID, "Programme Name", "Fund Type", tables.ColOrganisation)
	prog.Append(a.cell(LabelProgrammeID), a.cell(LabelProgrammeName), fund, a.cell(LabelOrganisation))
	set[tables.ProgrammeRef] = prog

	link := tabular.New(tables.ProgrammeJunction, tables.ColProgrammeID, tables.ColReportingRound)
	link.Append(a.cell(LabelProgrammeID), tabular.Cell{Value: round})
	set[tables.ProgrammeJunction] = link

	place := tabular.New(tables.PlaceDetails, "Question", "Indicator", "Answer")
	for _, label := range a.fields {
		place.Append(tabular.Cell{Value: label}, tabular.Cell{}, a.cell(label))
	}
	set[tables.PlaceDetails] = place

	return set
}

// fundCode maps a template fund label to its code. Unknown labels pass
// through unchanged.
func (b base) fundCode(label string) string {
	if f, ok := b.ref.FundByLabel(label); ok {
		return f.Code
	}
	return label
}

// checks returns the prechecks common to every round's template.
func (b base) checks() []precheck.Check {
	var out []precheck.Check
	for _, sheet := range []string{SheetStart, SheetAdmin, SheetProgress, SheetFunding, SheetPSI, SheetOutputs, SheetOutcomes, SheetRisks} {
		out = append(out, precheck.SheetCheck{
			Sheet:   sheet,
			Message: fmt.Sprintf("The %q tab is missing. Use the reporting template provided without removing or renaming tabs.", sheet),
		})
	}

	placeRow, fundRow := adminRow(LabelPlaceName), adminRow(LabelFundType)

	out = append(out,
		precheck.AuthorisationCheck{
			Sheet: SheetAdmin, Row: placeRow, Col: colValue, Claim: precheck.ClaimPlace,
			Message: "You are not authorised to submit for {entered_value}. You can only submit for {allowed_values}.",
		},
		precheck.AuthorisationCheck{
			Sheet: SheetAdmin, Row: fundRow, Col: colValue, Claim: precheck.ClaimFund,
			Message:   "You are not authorised to submit for {entered_value}. You can only submit for {allowed_values}.",
			Translate: b.fundCode,
		},
		precheck.AuthorisationCheck{
			Claim: precheck.ClaimRound, Round: b.round.Number,
			Message: "You are not authorised to submit for reporting round {entered_value}.",
		},
		precheck.CellCheck{
			Sheet: SheetStart, Row: rowVersion, Col: colValue,
			Expected: []string{b.round.TemplateVersion},
			Message:  fmt.Sprintf("This is not the correct template for round %d. Use %q.", b.round.Number, b.round.TemplateVersion),
		},
		precheck.CellCheck{
			Sheet: SheetStart, Row: rowPeriod, Col: colValue,
			Expected: []string{b.round.PeriodLabel},
			Message:  fmt.Sprintf("The reporting period must be %q for round %d.", b.round.PeriodLabel, b.round.Number),
		},
		precheck.CellCheck{
			Sheet: SheetAdmin, Row: fundRow, Col: colValue,
			Expected: b.ref.FundLabels(),
			Message:  "Cell B3 in the \"2 - Project Admin\" tab must contain a fund type from the dropdown list provided. Do not populate the cell with your own content.",
		},
		precheck.CellCheck{
			Sheet: SheetAdmin, Row: placeRow, Col: colValue,
			Expected: b.ref.PlaceNames(),
			Message:  "Cell B4 in the \"2 - Project Admin\" tab must contain a place name from the dropdown list provided. Do not populate the cell with your own content.",
		},
		precheck.ConflictCheck{
			Sheet: SheetAdmin, Row: placeRow, Col: colValue, MappedRow: fundRow, MappedCol: colValue,
			Allowed: b.ref.Allows,
			Message: "We do not recognise the combination of fund type and place name in cells B3 and B4 in \"2 - Project Admin\". Check the data is correct.",
		},
	)
	return out
}
