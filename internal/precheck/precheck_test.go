package precheck

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/fundingdata/internal/workbook"
)

func adminWorkbook(place, fund string) workbook.Workbook {
	return workbook.Workbook{
		"Start": {{"Version", "v1"}},
		"Admin": {{"Place", place}, {"Fund", fund}},
	}
}

func checks() []Check {
	return []Check{
		SheetCheck{Sheet: "Start", Message: "missing start"},
		SheetCheck{Sheet: "Admin", Message: "missing admin"},
		CellCheck{Sheet: "Start", Row: 0, Col: 1, Expected: []string{"v1"}, Message: "wrong version"},
		CellCheck{Sheet: "Admin", Row: 0, Col: 1, Expected: []string{"Here", "There"}, Message: "unknown place"},
		ConflictCheck{
			Sheet: "Admin", Row: 0, Col: 1, MappedRow: 1, MappedCol: 1,
			Allowed: func(place, fund string) bool { return place == "Here" && fund == "TD" },
			Message: "bad combination",
		},
		AuthorisationCheck{Sheet: "Admin", Row: 0, Col: 1, Claim: ClaimPlace,
			Message: "not authorised for {entered_value}; allowed: {allowed_values}"},
		AuthorisationCheck{Claim: ClaimRound, Round: 3, Message: "not authorised for round {entered_value}"},
	}
}

func messages(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("error %v is not a *precheck.Error", err)
	}
	return pe.Messages
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		wb     workbook.Workbook
		claims *Claims
		want   []string
	}{
		{
			name: "valid without claims",
			wb:   adminWorkbook("Here", "TD"),
		},
		{
			name: "missing sheet stops at first",
			wb:   workbook.Workbook{},
			want: []string{"missing start"},
		},
		{
			name: "basic failures are batched",
			wb:   workbook.Workbook{"Start": {{"Version", "v9"}}, "Admin": {{"Place", "Nowhere"}}},
			want: []string{"wrong version", "unknown place"},
		},
		{
			name: "conflicting runs after basic passes",
			wb:   adminWorkbook("There", "TD"),
			want: []string{"bad combination"},
		},
		{
			name:   "authorisation runs before basic",
			wb:     workbook.Workbook{"Start": {{"Version", "v9"}}, "Admin": {{"Place", "Here"}}},
			claims: &Claims{PlaceNames: []string{"There", "Elsewhere"}},
			want:   []string{"not authorised for Here; allowed: There, Elsewhere"},
		},
		{
			name:   "round outside claims",
			wb:     adminWorkbook("Here", "TD"),
			claims: &Claims{PlaceNames: []string{"here"}, Rounds: []int{1, 2}},
			want:   []string{"not authorised for round 3"},
		},
		{
			name:   "matching claims pass",
			wb:     adminWorkbook("Here", "TD"),
			claims: &Claims{PlaceNames: []string{"Here"}, Rounds: []int{3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := messages(t, Run(tt.wb, checks(), tt.claims))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("messages = %q, want %q", got, tt.want)
			}
		})
	}
}
