// Package transform reshapes a raw reporting workbook into the canonical
// table set described by the schema registry.
//
// # Rounds
//
// Each reporting round has its own Transformer because each round's template
// lays its data out differently. Every implementation honours the same
// contract: the tables it returns have exactly the registry's columns, rows
// that carry no submitted data are dropped, and every cell keeps its source
// reference so validation failures can point at the workbook.
//
// # Sections
//
// A sheet may hold several sections, each a title row followed by a header
// row and data. A section ends where the next section of the same sheet
// begins, or at the end of the sheet. Blank rows inside a section are
// spacing and are skipped.
//
// # Errors
//
// Problems that make a workbook untransformable (a missing sheet or
// section, the wrong template) are reported as *precheck.Error, never as
// validation failures.
//
// # Round rules
//
// Validate applies checks that only make sense for a template, such as a
// project reported as not yet started although its start date is inside the
// reporting period. They return validate.Failure values so callers report
// them with the registry checks.
package transform

import (
	"slices"
	"sort"

	"github.com/go-faster/errors"

	"github.com/JonMunkholm/fundingdata/internal/precheck"
	"github.com/JonMunkholm/fundingdata/internal/refdata"
	"github.com/JonMunkholm/fundingdata/internal/schema"
	"github.com/JonMunkholm/fundingdata/internal/tabular"
	"github.com/JonMunkholm/fundingdata/internal/validate"
	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

// ErrUnsupportedRound is returned by Rounds.For for rounds without a template.
var ErrUnsupportedRound = errors.New("reporting round not supported")

// Transformer converts one round's workbook layout into canonical tables.
type Transformer interface {
	// Round is the reporting round this transformer handles.
	Round() int

	// Checks returns the pre-transformation checks for this round's template.
	Checks() []precheck.Check

	// Transform builds the canonical table set. It must only be called on a
	// workbook that passed Checks.
	Transform(wb workbook.Workbook) (tabular.Set, error)

	// Validate applies the round's own rules to a set Transform returned.
	// Its failures are reported alongside the registry checks.
	Validate(set tabular.Set) []validate.Failure
}

// Rounds holds one Transformer per supported reporting round.
type Rounds struct {
	byRound map[int]Transformer
}

// NewRounds builds the transformers for every round in the reference data
// that has a template implementation.
func NewRounds(reg *schema.Registry, ref *refdata.Data) (*Rounds, error) {
	r := &Rounds{byRound: make(map[int]Transformer)}

	builders := map[int]func(base) Transformer{
		1: func(b base) Transformer { return round1{b} },
		2: func(b base) Transformer { return round2{b} },
		3: func(b base) Transformer { return round3{b} },
	}

	for n, build := range builders {
		info, ok := ref.Round(n)
		if !ok {
			return nil, errors.Errorf("reference data has no round %d", n)
		}
		r.byRound[n] = build(base{reg: reg, ref: ref, round: info})
	}
	return r, nil
}

// For returns the transformer for round n.
func (r *Rounds) For(n int) (Transformer, error) {
	t, ok := r.byRound[n]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedRound, "round %d", n)
	}
	return t, nil
}

// Supported returns the supported round numbers in ascending order.
func (r *Rounds) Supported() []int {
	out := make([]int, 0, len(r.byRound))
	for n := range r.byRound {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// base carries what every round's transformer needs.
type base struct {
	reg   *schema.Registry
	ref   *refdata.Data
	round refdata.Round
}

func (b base) Round() int {
	return b.round.Number
}

// blankKeys lists, per table, columns that templates pre-fill. A row with
// values only in these columns carries no submitted data.
var blankKeys = map[string][]string{
	"Place_Details":      {"Question"},
	"Programme_Progress": {"Question"},
}

// conform shapes every registry table in set to the registry's columns and
// prunes empty rows from submission-scoped tables. Tables the round did not
// produce come out empty.
func (b base) conform(set tabular.Set) tabular.Set {
	out := make(tabular.Set, b.reg.Len())
	for _, def := range b.reg.Tables() {
		t, ok := set[def.Name]
		if !ok {
			t = tabular.New(def.Name)
		}
		t = t.Conform(def.Name, def.Columns())

		if def.Parent == schema.ParentRoundLink {
			keys, ok := blankKeys[def.Name]
			if !ok && slices.Contains(def.Columns(), "Project ID") {
				keys = []string{"Project ID"}
			}
			t = t.DropBlankRows(keys...)
		}
		out[def.Name] = t
	}
	return out
}
