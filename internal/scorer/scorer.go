// Package scorer computes the enrichment completeness score for a contact.
// Scoring is a pure function of the field set and the contact's tag count;
// the engine recomputes it after every merge or update so the stored score
// never drifts from the final field values.
package scorer

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/contacts-cli/internal/model"
)

// Weights is the scoring weight table: points per populated field plus a
// capped per-tag bonus. The total is clamped to 100.
type Weights struct {
	Fields    map[string]float64 `yaml:"fields"`
	TagWeight float64            `yaml:"tag_weight"`
	TagCap    float64            `yaml:"tag_cap"`
}

// DefaultWeights returns the built-in weight table.
func DefaultWeights() Weights {
	return Weights{
		Fields: map[string]float64{
			model.FieldFirstName:      10,
			model.FieldLastName:       5,
			model.FieldPrimaryEmail:   15,
			model.FieldSecondaryEmail: 3,
			model.FieldPrimaryPhone:   10,
			model.FieldSecondaryPhone: 2,
			model.FieldTitle:          8,
			model.FieldCompany:        8,
			model.FieldLinkedInURL:    7,
			model.FieldWebsiteURL:     4,
			model.FieldStreetAddress:  4,
			model.FieldCity:           3,
			model.FieldState:          2,
			model.FieldZipCode:        2,
			model.FieldCountry:        2,
			model.FieldNotes:          5,
		},
		TagWeight: 2,
		TagCap:    10,
	}
}

// LoadWeights reads a weight table from a YAML file.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, eris.Wrapf(err, "scorer: read weights %s", path)
	}
	var w Weights
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Weights{}, eris.Wrapf(err, "scorer: parse weights %s", path)
	}
	if len(w.Fields) == 0 {
		return Weights{}, eris.Errorf("scorer: weights %s defines no fields", path)
	}
	return w, nil
}

// Score computes the enrichment score for a field set with the given tag
// count. Deterministic and side-effect free.
func (w Weights) Score(fields model.ContactFields, tagCount int) float64 {
	total := 0.0
	for field, weight := range w.Fields {
		if fields.Get(field) != "" {
			total += weight
		}
	}
	if tagCount > 0 {
		total += math.Min(float64(tagCount)*w.TagWeight, w.TagCap)
	}
	total = math.Min(100, total)
	return math.Round(total*100) / 100
}

// Score computes an enrichment score using the built-in weight table.
func Score(fields model.ContactFields, tagCount int) float64 {
	return DefaultWeights().Score(fields, tagCount)
}
