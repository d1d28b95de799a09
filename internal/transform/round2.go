package transform

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// round2 reads the second template, which adds adjustment request status and
// delivery stage to project progress.
type round2 struct{ base }

func (r round2) Checks() []precheck.Check {
	return r.checks()
}

func (r round2) Transform(wb workbook.Workbook) (tabular.Set, error) {
	return r.assemble(wb, sections{
		projectProgress: extendedProjectProgress,
		funding:         longFunding,
		outputs:         longOutputs,
		outcomes:        longOutcomes,
	})
}

// extendedProjectProgress requires the columns introduced in round 2. A
// template without them is an older template, not a data error.
func extendedProjectProgress(wb workbook.Workbook) (*tabular.Table, error) {
	t, err := read(wb, SheetProgress, SectionProjectProgress, projectProgressHeaders)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, c := range round2Columns {
		if !slices.Contains(t.Columns, c) {
			missing = append(missing, fmt.Sprintf(
				"The %q column is missing from the %q section of the %q tab. Use the reporting template for this round.",
				c, SectionProjectProgress, SheetProgress,
			))
		}
	}
	if len(missing) > 0 {
		return nil, precheck.Fail(missing...)
	}
	return t, nil
}
