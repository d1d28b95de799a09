// Package precheck runs the fast, pre-transformation checks on a raw
// workbook: are the expected sheets present, is it the right template and
// reporting period, is the place/fund combination real, and is the caller
// allowed to submit for it.
//
// Failures are plain human-readable messages with no cell addressing. They
// are always fatal to the ingest and never retried.
package precheck

import (
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// Kind orders checks into batches. Batches run in Kind order and the first
// batch with failures stops evaluation.
type Kind int

const (
	KindSheet Kind = iota
	KindAuthorisation
	KindBasic
	KindConflicting
)

// Claims are what the caller is authorised to submit for. A nil *Claims
// disables authorisation checks.
type Claims struct {
	PlaceNames []string `json:"place_names"`
	FundTypes  []string `json:"fund_types"`
	Rounds     []int    `json:"reporting_rounds"`
}

// Check is one pre-transformation rule.
type Check interface {
	Kind() Kind
	// Run returns ok=false and a message when the check fails.
	Run(wb workbook.Workbook, claims *Claims) (ok bool, message string)
}

// Error carries every failure message of the failing batch.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return "pre-transformation checks failed: " + strings.Join(e.Messages, "; ")
}

// Fail builds an Error from messages.
func Fail(messages ...string) *Error {
	return &Error{Messages: messages}
}

// Run executes checks against wb. It returns nil or an *Error.
//
// A missing sheet fails immediately since the checks that follow read from
// it. Authorisation checks only run when claims are supplied.
func Run(wb workbook.Workbook, checks []Check, claims *Claims) error {
	for _, kind := range []Kind{KindSheet, KindAuthorisation, KindBasic, KindConflicting} {
		if kind == KindAuthorisation && claims == nil {
			continue
		}

		var messages []string
		for _, c := range checks {
			if c.Kind() != kind {
				continue
			}
			ok, msg := c.Run(wb, claims)
			if ok {
				continue
			}
			if kind == KindSheet {
				return Fail(msg)
			}
			messages = append(messages, msg)
		}
		if len(messages) > 0 {
			return Fail(messages...)
		}
	}
	return nil
}

// SheetCheck requires a sheet to be present.
type SheetCheck struct {
	Sheet   string
	Message string
}

func (c SheetCheck) Kind() Kind { return KindSheet }

func (c SheetCheck) Run(wb workbook.Workbook, _ *Claims) (bool, string) {
	_, ok := wb.Sheet(c.Sheet)
	return ok, c.Message
}

// CellCheck requires a cell to hold one of the expected values.
type CellCheck struct {
	Sheet    string
	Row, Col int
	Expected []string
	Message  string
}

func (c CellCheck) Kind() Kind { return KindBasic }

func (c CellCheck) Run(wb workbook.Workbook, _ *Claims) (bool, string) {
	got := wb[c.Sheet].Cell(c.Row, c.Col)
	return containsFold(c.Expected, got), c.Message
}

// ConflictCheck requires the values of two cells to form an allowed pair.
type ConflictCheck struct {
	Sheet                string
	Row, Col             int
	MappedRow, MappedCol int
	Allowed              func(value, mapped string) bool
	Message              string
}

func (c ConflictCheck) Kind() Kind { return KindConflicting }

func (c ConflictCheck) Run(wb workbook.Workbook, _ *Claims) (bool, string) {
	s := wb[c.Sheet]
	return c.Allowed(s.Cell(c.Row, c.Col), s.Cell(c.MappedRow, c.MappedCol)), c.Message
}

// Claim selects which claim an AuthorisationCheck compares against.
type Claim int

const (
	ClaimPlace Claim = iota
	ClaimFund
	ClaimRound
)

// AuthorisationCheck requires a workbook value to be within the caller's
// claims. ClaimRound compares the fixed Round instead of a cell.
//
// Message may contain {entered_value} and {allowed_values}.
type AuthorisationCheck struct {
	Sheet    string
	Row, Col int
	Claim    Claim
	Round    int
	Message  string

	// Translate maps the cell value into the claim's vocabulary, e.g. a
	// fund label into its code. Optional.
	Translate func(string) string
}

func (c AuthorisationCheck) Kind() Kind { return KindAuthorisation }

func (c AuthorisationCheck) Run(wb workbook.Workbook, claims *Claims) (bool, string) {
	var entered string
	var allowed []string

	if claims == nil {
		return true, ""
	}

	switch c.Claim {
	case ClaimRound:
		entered = strconv.Itoa(c.Round)
		for _, r := range claims.Rounds {
			allowed = append(allowed, strconv.Itoa(r))
		}
	case ClaimFund:
		entered = wb[c.Sheet].Cell(c.Row, c.Col)
		allowed = claims.FundTypes
	default:
		entered = wb[c.Sheet].Cell(c.Row, c.Col)
		allowed = claims.PlaceNames
	}
	if c.Translate != nil && c.Claim != ClaimRound {
		entered = c.Translate(entered)
	}

	// An absent claim list places no restriction on that dimension.
	if len(allowed) == 0 || containsFold(allowed, entered) {
		return true, ""
	}
	msg := strings.NewReplacer(
		"{entered_value}", entered,
		"{allowed_values}", strings.Join(allowed, ", "),
	).Replace(c.Message)
	return false, msg
}

func containsFold(values []string, v string) bool {
	return slices.ContainsFunc(values, func(s string) bool {
		return strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(v))
	})
}
