package core

import (
	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

// RecipeFile is the YAML form of a recipe.
type RecipeFile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Active      *bool  `yaml:"active,omitempty"`
	// Interval is in minutes.
	Interval  int        `yaml:"interval"`
	Cookies   bool       `yaml:"cookies,omitempty"`
	Instances []string   `yaml:"instances,omitempty"`
	Steps     []StepFile `yaml:"steps"`
}

type StepFile struct {
	Sort        int          `yaml:"sort,omitempty"`
	Type        catalog.Kind `yaml:"type"`
	Value       string       `yaml:"value,omitempty"`
	Active      *bool        `yaml:"active,omitempty"`
	Items       []string     `yaml:"items,omitempty"`
	RandomItem  bool         `yaml:"random_item,omitempty"`
	UseDataFrom int          `yaml:"use_data_from,omitempty"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Recipe converts the file into a recipe ready to be saved.
func (f *RecipeFile) Recipe() *types.Recipe {
	r := &types.Recipe{
		Name:        f.Name,
		Description: f.Description,
		Active:      boolOr(f.Active, true),
		Interval:    f.Interval,
		Cookies:     f.Cookies,
		Steps:       make([]types.Step, 0, len(f.Steps)),
	}
	for _, s := range f.Steps {
		r.Steps = append(r.Steps, types.Step{
			Sort:          s.Sort,
			Kind:          s.Type,
			Value:         s.Value,
			Active:        boolOr(s.Active, true),
			Items:         append([]string(nil), s.Items...),
			UseRandomItem: s.RandomItem,
			UseDataFrom:   s.UseDataFrom,
		})
	}
	return r
}
