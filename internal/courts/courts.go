// Package courts holds the directory of court offices that run auctions.
package courts

import (
	_ "embed"
	"sort"

	"github.com/evidenceledger/proxybid/internal/errl"
	"github.com/goccy/go-yaml"
)

//go:embed courts.yaml
var courtsYAML []byte

// Court is a court office as identified by the auction system
type Court struct {
	Code   string `yaml:"code" json:"code"`
	Name   string `yaml:"name" json:"name"`
	Region string `yaml:"region" json:"region"`
}

// Directory indexes courts by office code
type Directory struct {
	courts []Court
	byCode map[string]Court
}

// Load parses the embedded court list
func Load() (*Directory, error) {
	return Parse(courtsYAML)
}

// Parse builds a Directory from a YAML document with a top-level "courts" list
func Parse(data []byte) (*Directory, error) {
	var doc struct {
		Courts []Court `yaml:"courts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errl.Errorf("parsing court directory: %w", err)
	}

	d := &Directory{byCode: make(map[string]Court, len(doc.Courts))}
	for _, c := range doc.Courts {
		if c.Code == "" {
			return nil, errl.Errorf("court without code: %q", c.Name)
		}
		if _, dup := d.byCode[c.Code]; dup {
			return nil, errl.Errorf("duplicate court code %s", c.Code)
		}
		d.byCode[c.Code] = c
		d.courts = append(d.courts, c)
	}

	sort.SliceStable(d.courts, func(i, j int) bool { return d.courts[i].Code < d.courts[j].Code })

	return d, nil
}

// Lookup returns the court with the given office code
func (d *Directory) Lookup(code string) (Court, bool) {
	c, ok := d.byCode[code]
	return c, ok
}

// Known reports whether code is a known court office code
func (d *Directory) Known(code string) bool {
	_, ok := d.byCode[code]
	return ok
}

// All returns the courts sorted by office code
func (d *Directory) All() []Court {
	out := make([]Court, len(d.courts))
	copy(out, d.courts)
	return out
}
