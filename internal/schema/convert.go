package schema

// convert.go turns raw workbook cells into the values persisted for a field.
//
// Submitted workbooks are filled in by hand, so the parsers are lenient:
//   - Day-first dates in several separators, ISO dates, timestamps and raw
//     Excel serial numbers
//   - Currency symbols, thousands separators and accounting negatives "(1,200)"
//   - Yes/No, True/False and 1/0 booleans
//   - Enum values matched case-insensitively
//
// Blank cells coerce to nil so the database stores NULL.

import (
	"database/sql/driver"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a plain number after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years more than this far in the future are moved to the previous century.
var TwoDigitYearPivot = 20

// Excel serial numbers accepted as dates: 1900-01-01 through 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

var (
	twoDigitYearLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02",
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
		"2 Jan 2006", "2 January 2006", "Jan 2, 2006",
		"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339,
	}
)

// Date is a calendar date persisted as YYYY-MM-DD on every driver.
type Date struct {
	time.Time
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.Format(time.DateOnly), nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// Coerce converts raw into the value persisted for spec. It returns nil for
// blank input; whether blank is acceptable is the caller's concern.
func Coerce(spec FieldSpec, raw string) (any, error) {
	s := CleanCell(raw)
	if s == "" {
		return nil, nil
	}

	switch spec.Type {
	case FieldInt:
		return ParseInt(s)
	case FieldNumeric:
		return ParseDecimal(s)
	case FieldDate:
		return ParseDate(s)
	case FieldBool:
		return ParseBool(s)
	case FieldEnum:
		return MatchEnum(s, spec.EnumValues)
	default:
		return s, nil
	}
}

// ParseDecimal parses a number, tolerating currency symbols, thousands
// separators and accounting-style negatives.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}
	if !numericRegex.MatchString(s) {
		return decimal.Decimal{}, errors.Errorf("%q is not a number", s)
	}
	return decimal.NewFromString(s)
}

// ParseInt parses a whole number. "3.0" is accepted, "3.5" is not.
func ParseInt(s string) (int64, error) {
	if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return i, nil
	}
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, errors.Errorf("%q is not a whole number", s)
	}
	return d.IntPart(), nil
}

// ParseDate parses a calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{truncate(t)}, nil
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return Date{truncate(t)}, nil
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return Date{truncate(t)}, nil
		}
	}

	return Date{}, errors.Errorf("%q is not a date", s)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseBool accepts yes/no, true/false, y/n, t/f and 1/0.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, errors.Errorf("%q is not yes or no", s)
	}
}

// MatchEnum returns the declared spelling of s, matched case-insensitively.
func MatchEnum(s string, values []string) (string, error) {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return v, nil
		}
	}
	return "", errors.Errorf("%q is not one of: %s", s, strings.Join(values, ", "))
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix (="...") and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}
