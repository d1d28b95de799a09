package transform

import (
	"strings"

	"github.com/JonMunkholm/fundingdata/internal/schema"
	"github.com/JonMunkholm/fundingdata/internal/schema/tables"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
	"github.com/JonMunkholm/fundingdata/internal/validate"
)

const (
	statusNotYetStarted = "Not yet started"

	msgStartedTooEarly = "You've entered a project start date that is before the end of the reporting period, " +
		"but the project delivery status has been entered as 'Not yet started'. Add a valid start date or change the status."
)

// rule is a check that only makes sense against one template's data.
type rule func(b base, set tabular.Set) []validate.Failure

// rules run for every round.
var rules = []rule{
	notYetStarted,
}

// Validate runs the round's own rules over a transformed set. Cells the
// generic checks already reject (unparseable dates, unknown statuses) are
// skipped.
func (b base) Validate(set tabular.Set) []validate.Failure {
	var out []validate.Failure
	for _, r := range rules {
		out = append(out, r(b, set)...)
	}
	return out
}

// notYetStarted flags projects reported as not started whose start date
// falls on or before the last day of the reporting period.
func notYetStarted(b base, set tabular.Set) []validate.Failure {
	t, ok := set[tables.ProjectProgress]
	if !ok {
		return nil
	}
	def, ok := b.reg.Table(tables.ProjectProgress)
	if !ok {
		return nil
	}

	var out []validate.Failure
	for i := range t.Rows {
		status := schema.CleanCell(t.Value(i, "Project Delivery Status"))
		if !strings.EqualFold(status, statusNotYetStarted) {
			continue
		}
		start, err := schema.ParseDate(schema.CleanCell(t.Value(i, "Start Date")))
		if err != nil {
			continue
		}
		if start.After(b.round.PeriodEnd) {
			continue
		}
		out = append(out, validate.CellFailure(def, t, i, "Start Date", validate.GenericFailure, msgStartedTooEarly))
	}
	return out
}
