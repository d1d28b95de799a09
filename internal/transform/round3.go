package transform

import (
	"fmt"

	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// round3 reads the third template. Funding, outputs and outcomes move to a
// wide layout with one column per reporting period.
type round3 struct{ base }

func (r round3) Checks() []precheck.Check {
	return r.checks()
}

func (r round3) Transform(wb workbook.Workbook) (tabular.Set, error) {
	return r.assemble(wb, sections{
		projectProgress: extendedProjectProgress,
		funding:         wideFunding,
		outputs:         wideOutputs,
		outcomes:        wideOutcomes,
	})
}

func readWide(wb workbook.Workbook, sheet, title string, rename map[string]string) (*tabular.Table, error) {
	t, err := read(wb, sheet, title, rename)
	if err != nil {
		return nil, err
	}
	if len(periodColumns(t)) == 0 {
		return nil, precheck.Fail(fmt.Sprintf(
			"The %q section of the %q tab has no reporting period columns. Use the reporting template for this round.",
			title, sheet,
		))
	}
	return t, nil
}

func wideFunding(wb workbook.Workbook) (*tabular.Table, error) {
	t, err := readWide(wb, SheetFunding, SectionFunding, nil)
	if err != nil {
		return nil, err
	}
	ids := []string{"Project ID", "Funding Source Name", "Funding Source Type", "Secured"}
	return unpivot(t, ids, "Spend for Reporting Period"), nil
}

func wideOutputs(wb workbook.Workbook) (*tabular.Table, error) {
	t, err := readWide(wb, SheetOutputs, SectionOutputs, outputHeaders)
	if err != nil {
		return nil, err
	}
	ids := []string{"Project ID", "Output", "Category", "Unit of Measurement", "Additional Information"}
	return unpivot(t, ids, "Amount"), nil
}

func wideOutcomes(wb workbook.Workbook) (*tabular.Table, error) {
	t, err := readWide(wb, SheetOutcomes, SectionOutcomes, nil)
	if err != nil {
		return nil, err
	}
	ids := []string{"Project ID", "Outcome", "Category", "Unit of Measurement", "Geography Indicator", "Higher Frequency"}
	return unpivot(t, ids, "Amount"), nil
}
