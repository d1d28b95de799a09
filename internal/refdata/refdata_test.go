package refdata

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	d, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	r, ok := d.Round(3)
	if !ok {
		t.Fatal("round 3 missing")
	}
	if want := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC); !r.PeriodStart.Equal(want) {
		t.Errorf("PeriodStart = %v, want %v", r.PeriodStart, want)
	}
	if r.TemplateVersion == "" || r.PeriodLabel == "" {
		t.Errorf("round 3 is missing template markers: %+v", r)
	}

	f, ok := d.FundByLabel("town_deal")
	if !ok || f.Code != "TD" {
		t.Errorf("FundByLabel(town_deal) = %+v, %v; want TD", f, ok)
	}
}

func TestAllows(t *testing.T) {
	d := MustDefault()

	tests := []struct {
		place string
		fund  string
		want  bool
	}{
		{"Exampleton", "Town_Deal", true},
		{"Exampleton", "Future_High_Street_Fund", true},
		{"Sampleford", "Future_High_Street_Fund", false},
		{"Nowhere", "Town_Deal", false},
		{"Testbury", "Unknown_Fund", false},
	}

	for _, tt := range tests {
		if got := d.Allows(tt.place, tt.fund); got != tt.want {
			t.Errorf("Allows(%q, %q) = %v, want %v", tt.place, tt.fund, got, tt.want)
		}
	}
}

func TestParseRejectsUnknownFund(t *testing.T) {
	doc := []byte(`
funds:
  - code: TD
    label: Town_Deal
places:
  - name: X
    funds: [ZZ]
`)
	if _, err := Parse(doc); err == nil {
		t.Error("Parse should reject a place naming an unknown fund")
	}
}
