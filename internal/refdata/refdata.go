// Package refdata exposes the reference data behind the reporting templates:
// which funds exist, which places may report for which funds, and what each
// reporting round's template looks like. The data ships embedded in the
// binary as YAML.
package refdata

import (
	_ "embed"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var referenceYAML []byte

// Fund is a fund type that programmes report against.
type Fund struct {
	Code  string `yaml:"code"`  // Stored on programmes: "TD"
	Label string `yaml:"label"` // As selected in the template: "Town_Deal"
	Name  string `yaml:"name"`
}

// Place is a local area that submits returns.
type Place struct {
	Name         string   `yaml:"name"`
	Organisation string   `yaml:"organisation"`
	Geography    string   `yaml:"geography"`
	Funds        []string `yaml:"funds"`
}

// Round describes one reporting round's template.
type Round struct {
	Number          int       `yaml:"number"`
	TemplateVersion string    `yaml:"template_version"`
	PeriodLabel     string    `yaml:"period_label"`
	PeriodStart     time.Time `yaml:"period_start"`
	PeriodEnd       time.Time `yaml:"period_end"`
}

// Data is the parsed reference file.
type Data struct {
	Funds  []Fund  `yaml:"funds"`
	Places []Place `yaml:"places"`
	Rounds []Round `yaml:"rounds"`
}

var (
	defaultOnce sync.Once
	defaultData *Data
	defaultErr  error
)

// Parse decodes reference data and checks that places only name known funds.
func Parse(b []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, errors.Wrap(err, "decode reference data")
	}
	for _, p := range d.Places {
		for _, code := range p.Funds {
			if _, ok := d.FundByCode(code); !ok {
				return nil, errors.Errorf("place %q references unknown fund %q", p.Name, code)
			}
		}
	}
	return &d, nil
}

// Default returns the embedded reference data, parsed once.
func Default() (*Data, error) {
	defaultOnce.Do(func() {
		defaultData, defaultErr = Parse(referenceYAML)
	})
	return defaultData, defaultErr
}

// MustDefault is Default for package initialisation and tests.
func MustDefault() *Data {
	d, err := Default()
	if err != nil {
		panic(err)
	}
	return d
}

// Round returns the definition of round n.
func (d *Data) Round(n int) (Round, bool) {
	for _, r := range d.Rounds {
		if r.Number == n {
			return r, true
		}
	}
	return Round{}, false
}

// FundByLabel finds a fund by its template label.
func (d *Data) FundByLabel(label string) (Fund, bool) {
	for _, f := range d.Funds {
		if strings.EqualFold(f.Label, strings.TrimSpace(label)) {
			return f, true
		}
	}
	return Fund{}, false
}

// FundByCode finds a fund by code.
func (d *Data) FundByCode(code string) (Fund, bool) {
	for _, f := range d.Funds {
		if strings.EqualFold(f.Code, strings.TrimSpace(code)) {
			return f, true
		}
	}
	return Fund{}, false
}

// FundLabels returns every fund label, in file order.
func (d *Data) FundLabels() []string {
	out := make([]string, len(d.Funds))
	for i, f := range d.Funds {
		out[i] = f.Label
	}
	return out
}

// Place finds a place by name.
func (d *Data) Place(name string) (Place, bool) {
	for _, p := range d.Places {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Place{}, false
}

// PlaceNames returns every place name, in file order.
func (d *Data) PlaceNames() []string {
	out := make([]string, len(d.Places))
	for i, p := range d.Places {
		out[i] = p.Name
	}
	return out
}

// Allows reports whether place may submit for the fund with the given label.
func (d *Data) Allows(place, fundLabel string) bool {
	p, ok := d.Place(place)
	if !ok {
		return false
	}
	f, ok := d.FundByLabel(fundLabel)
	if !ok {
		return false
	}
	return slices.Contains(p.Funds, f.Code)
}
