// Package transformtest builds valid reporting workbooks for tests.
package transformtest

import (
	"fmt"

	"github.com/JonMunkholm/fundingdata/internal/refdata"
	"github.com/JonMunkholm/fundingdata/internal/transform"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// Options describe the submission a fixture workbook carries.
type Options struct {
	Round         int
	Place         string
	FundLabel     string
	ProgrammeID   string
	ProgrammeName string
	Organisation  string
	Projects      int
}

// Option adjusts Options.
type Option func(*Options)

func WithProgramme(id, name string) Option {
	return func(o *Options) { o.ProgrammeID, o.ProgrammeName = id, name }
}

func WithProgrammeName(name string) Option {
	return func(o *Options) { o.ProgrammeName = name }
}

func WithOrganisation(name string) Option {
	return func(o *Options) { o.Organisation = name }
}

func WithPlace(place, fundLabel string) Option {
	return func(o *Options) { o.Place, o.FundLabel = place, fundLabel }
}

func WithProjects(n int) Option {
	return func(o *Options) { o.Projects = n }
}

// Workbook returns a complete, valid workbook for round.
func Workbook(round int, opts ...Option) workbook.Workbook {
	o := Options{
		Round:         round,
		Place:         "Exampleton",
		FundLabel:     "Town_Deal",
		ProgrammeID:   "TD-EXA",
		ProgrammeName: "Exampleton Town Deal",
		Organisation:  "Exampleton Borough Council",
		Projects:      2,
	}
	for _, opt := range opts {
		opt(&o)
	}

	info, ok := refdata.MustDefault().Round(round)
	if !ok {
		panic(fmt.Sprintf("transformtest: no reference data for round %d", round))
	}
	b := builder{o: o, info: info}

	return workbook.Workbook{
		transform.SheetStart:    b.start(),
		transform.SheetAdmin:    b.admin(),
		transform.SheetProgress: b.progress(),
		transform.SheetFunding:  b.funding(),
		transform.SheetPSI:      b.psi(),
		transform.SheetOutputs:  b.outputs(),
		transform.SheetOutcomes: b.outcomes(),
		transform.SheetRisks:    b.risks(),
	}
}

// ProjectID returns the code of the i-th (zero-based) fixture project.
func ProjectID(programmeID string, i int) string {
	return fmt.Sprintf("%s-%02d", programmeID, i+1)
}

// Put overwrites a data cell. row is zero-based within the section's data
// rows and column is the raw template header.
func Put(wb workbook.Workbook, sheet, section string, row int, column, value string) {
	sec, ok := wb.FindSection(sheet, section)
	if !ok {
		panic(fmt.Sprintf("transformtest: section %q not found in %q", section, sheet))
	}
	col := -1
	for i, h := range sec.Header {
		if h == column {
			col = i
		}
	}
	if col < 0 {
		panic(fmt.Sprintf("transformtest: column %q not in section %q", column, section))
	}

	s := wb[sheet]
	r := sec.FirstRow + row
	for len(s) <= r {
		s = append(s, nil)
	}
	for len(s[r]) <= col {
		s[r] = append(s[r], "")
	}
	s[r][col] = value
	wb[sheet] = s
}

// PutAdmin overwrites the value of an admin field.
func PutAdmin(wb workbook.Workbook, label, value string) {
	s := wb[transform.SheetAdmin]
	for i, row := range s {
		if len(row) > 1 && row[0] == label {
			s[i][1] = value
			return
		}
	}
	panic(fmt.Sprintf("transformtest: admin field %q not found", label))
}

type builder struct {
	o    Options
	info refdata.Round
}

const dayFirst = "02/01/2006"

func (b builder) project(i int) string {
	return ProjectID(b.o.ProgrammeID, i)
}

func (b builder) periodStart() string { return b.info.PeriodStart.Format(dayFirst) }
func (b builder) periodEnd() string { return b.info.PeriodEnd.Format(dayFirst) }

// nextPeriod is the six months following the reporting period.
func (b builder) nextPeriod() (string, string) {
	start := b.info.PeriodEnd.AddDate(0, 0, 1)
	end := start.AddDate(0, 6, -1)
	return start.Format(dayFirst), end.Format(dayFirst)
}

// periodHeaders are the wide-format columns for the reporting period and the
// forecast period that follows it.
func (b builder) periodHeaders() []string {
	start := b.info.PeriodEnd.AddDate(0, 0, 1)
	end := start.AddDate(0, 6, -1)
	return []string{
		fmt.Sprintf("%s - %s (Actual)", b.info.PeriodStart.Format("Jan 2006"), b.info.PeriodEnd.Format("Jan 2006")),
		fmt.Sprintf("%s - %s (Forecast)", start.Format("Jan 2006"), end.Format("Jan 2006")),
	}
}

func (b builder) start() workbook.Sheet {
	return workbook.Sheet{
		{"Programme Reporting Template"},
		{"Template Version", b.info.TemplateVersion},
		{"Reporting Period", b.info.PeriodLabel},
	}
}

func (b builder) admin() workbook.Sheet {
	s := workbook.Sheet{
		{transform.SectionAdmin},
		{"Field", "Value"},
		{transform.LabelFundType, b.o.FundLabel},
		{transform.LabelPlaceName, b.o.Place},
		{transform.LabelProgrammeID, b.o.ProgrammeID},
		{transform.LabelProgrammeName, b.o.ProgrammeName},
		{transform.LabelOrganisation, b.o.Organisation},
		{"Lead Contact", "Programme Office"},
		{},
		{transform.SectionProjects},
		{"Project ID", "Project Name", "Primary Intervention Theme", "Single or Multiple Locations", "Locations", "Postcodes", "GIS Provided", "Lat/Long"},
	}
	for i := range b.o.Projects {
		s = append(s, []string{
			b.project(i), fmt.Sprintf("Project %d", i+1), "Transport", "Single", "High Street", "EX1 1AA", "Yes", "53.48, -2.24",
		})
	}
	return s
}

func (b builder) progress() workbook.Sheet {
	header := []string{
		"Project ID", "Start Date", "Completion Date", "Delivery Status", "Delivery (RAG)", "Spend (RAG)", "Risk (RAG)",
		"Commentary", "Upcoming Milestone", "Upcoming Milestone Date",
	}
	if b.o.Round >= 2 {
		header = append(header, "Adjustment Request Status", "Current Delivery Stage")
	}

	s := workbook.Sheet{
		{transform.SectionProgrammeProgress},
		{"Question", "Answer"},
		{"Programme Delivery", "On track"},
		{"Key Risks", "Contractor availability"},
		{},
		{transform.SectionProjectProgress},
		header,
	}
	for i := range b.o.Projects {
		row := []string{
			b.project(i), "01/04/2022", "31/03/2026", "Ongoing - on schedule", "Green", "Amber", "Green",
			"Progressing as planned", "Public consultation", b.periodEnd(),
		}
		if b.o.Round >= 2 {
			row = append(row, "No adjustment requested", "Construction")
		}
		s = append(s, row)
	}
	return s
}

func (b builder) funding() workbook.Sheet {
	var s workbook.Sheet
	s = append(s, []string{transform.SectionFunding})

	if b.o.Round >= 3 {
		s = append(s, append([]string{"Project ID", "Funding Source Name", "Funding Source Type", "Secured"}, b.periodHeaders()...))
		for i := range b.o.Projects {
			s = append(s, []string{b.project(i), "Towns Fund", "Towns Fund", "Yes", "125000", "80000"})
		}
	} else {
		s = append(s, []string{"Project ID", "Funding Source Name", "Funding Source Type", "Secured", "Start Date", "End Date", "Spend", "Actual/Forecast"})
		nextStart, nextEnd := b.nextPeriod()
		for i := range b.o.Projects {
			s = append(s,
				[]string{b.project(i), "Towns Fund", "Towns Fund", "Yes", b.periodStart(), b.periodEnd(), "125000", "Actual"},
				[]string{b.project(i), "Towns Fund", "Towns Fund", "Yes", nextStart, nextEnd, "80000", "Forecast"},
			)
		}
	}

	s = append(s, []string{}, []string{transform.SectionComments}, []string{"Project ID", "Comment"})
	for i := range b.o.Projects {
		s = append(s, []string{b.project(i), "Spend on profile"})
	}
	return s
}

func (b builder) psi() workbook.Sheet {
	s := workbook.Sheet{
		{transform.SectionPSI},
		{"Project ID", "Total Project Value", "Townsfund Funding", "Private Sector Funding Required", "Private Sector Funding Secured", "Additional Comments"},
	}
	for i := range b.o.Projects {
		s = append(s, []string{b.project(i), "2500000", "1500000", "500000", "250000", ""})
	}
	return s
}

func (b builder) outputs() workbook.Sheet {
	s := workbook.Sheet{{transform.SectionOutputs}}
	if b.o.Round >= 3 {
		header := []string{"Project ID", "Output", "Category", "Unit of Measurement"}
		header = append(header, b.periodHeaders()...)
		s = append(s, append(header, "Additional Info"))
		for i := range b.o.Projects {
			s = append(s, []string{b.project(i), "Amount of new floorspace", "Regeneration", "sqm", "250", "400", ""})
		}
		return s
	}

	s = append(s, []string{"Project ID", "Output", "Category", "Start Date", "End Date", "Unit of Measurement", "Actual/Forecast", "Amount", "Additional Info"})
	for i := range b.o.Projects {
		s = append(s, []string{b.project(i), "Amount of new floorspace", "Regeneration", b.periodStart(), b.periodEnd(), "sqm", "Actual", "250", ""})
	}
	return s
}

func (b builder) outcomes() workbook.Sheet {
	s := workbook.Sheet{{transform.SectionOutcomes}}
	if b.o.Round >= 3 {
		header := []string{"Project ID", "Outcome", "Category", "Unit of Measurement", "Geography Indicator"}
		header = append(header, b.periodHeaders()...)
		s = append(s, append(header, "Higher Frequency"))
		for i := range b.o.Projects {
			s = append(s, []string{b.project(i), "Footfall", "Place", "people", "Town", "1200", "1500", ""})
		}
		return s
	}

	s = append(s, []string{"Project ID", "Outcome", "Category", "Start Date", "End Date", "Unit of Measurement", "Geography Indicator", "Amount", "Actual/Forecast", "Higher Frequency"})
	for i := range b.o.Projects {
		s = append(s, []string{b.project(i), "Footfall", "Place", b.periodStart(), b.periodEnd(), "people", "Town", "1200", "Actual", ""})
	}
	return s
}

func (b builder) risks() workbook.Sheet {
	s := workbook.Sheet{
		{transform.SectionRisks},
		{
			"Project ID", "Risk Name", "Risk Category", "Short Description", "Full Description", "Consequences",
			"Pre-mitigated Impact", "Pre-mitigated Likelihood", "Mitigations", "Post-mitigated Impact",
			"Post-mitigated Likelihood", "Proximity", "Risk Owner",
		},
		{
			"", "Cost inflation", "Financial", "Construction costs rise", "Tender prices exceed budget", "Reduced scope",
			"High", "Medium", "Value engineering", "Medium", "Low", "Close", "Programme Manager",
		},
	}
	for i := range b.o.Projects {
		s = append(s, []string{
			b.project(i), "Planning delay", "Delivery", "Consent is late", "Planning consent takes longer than expected", "Late start",
			"Medium", "Medium", "Early engagement", "Low", "Low", "Approaching", "Project Lead",
		})
	}
	return s
}
