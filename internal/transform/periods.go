package transform

import (
	"regexp"
	"time"

	"github.com/JonMunkholm/fundingdata/internal/tabular"
)

// periodHeader matches the wide-format column headers used from round 3,
// e.g. "Apr 2023 - Sep 2023 (Actual)".
var periodHeader = regexp.MustCompile(`^([A-Za-z]{3} \d{4}) - ([A-Za-z]{3} \d{4}) \((Actual|Forecast)\)$`)

type period struct {
	start, end time.Time
	state      string
}

// parsePeriod decodes a period column header. The end is the last day of
// the end month.
func parsePeriod(header string) (period, bool) {
	m := periodHeader.FindStringSubmatch(header)
	if m == nil {
		return period{}, false
	}
	start, err := time.Parse("Jan 2006", m[1])
	if err != nil {
		return period{}, false
	}
	endMonth, err := time.Parse("Jan 2006", m[2])
	if err != nil {
		return period{}, false
	}
	return period{
		start: start,
		end:   endMonth.AddDate(0, 1, -1),
		state: m[3],
	}, true
}

// periodColumns returns the headers of t that name reporting periods.
func periodColumns(t *tabular.Table) []string {
	var out []string
	for _, c := range t.Columns {
		if _, ok := parsePeriod(c); ok {
			out = append(out, c)
		}
	}
	return out
}

// unpivot melts the period columns of a wide table into long rows holding
// Start Date, End Date, Actual/Forecast and the value under valueName. Rows
// with a blank value are dropped: a blank period cell means nothing was
// reported for it.
func unpivot(t *tabular.Table, ids []string, valueName string) *tabular.Table {
	const varName = "Period"

	long := t.Melt(ids, periodColumns(t), varName, valueName)
	long = long.Filter(func(i int) bool { return !long.Cell(i, valueName).Blank() })

	cols := append(append([]string(nil), ids...), "Start Date", "End Date", "Actual/Forecast", valueName)
	out := tabular.New(t.Name, cols...)
	for i := range long.Rows {
		p, _ := parsePeriod(long.Value(i, varName))
		cells := make([]tabular.Cell, 0, len(cols))
		for _, id := range ids {
			cells = append(cells, long.Cell(i, id))
		}
		cells = append(cells,
			tabular.Cell{Value: p.start.Format("2006-01-02")},
			tabular.Cell{Value: p.end.Format("2006-01-02")},
			tabular.Cell{Value: p.state},
			long.Cell(i, valueName),
		)
		out.Append(cells...)
	}
	return out
}
