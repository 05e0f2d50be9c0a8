package core

import (
	"fmt"
	"sort"

	"github.com/arnavsurve/scrapebot/pkg/steprunner"
)

// ValidateRecipeStructure checks the recipe name, step ordering, value
// requirements and data references.
func ValidateRecipeStructure(rf *RecipeFile) error {
	if rf.Name == "" {
		return fmt.Errorf("recipe is missing 'name'")
	}
	if rf.Interval < 0 {
		return fmt.Errorf("recipe %q has negative interval %d", rf.Name, rf.Interval)
	}

	instances := make(map[string]bool)
	for i, name := range rf.Instances {
		if name == "" {
			return fmt.Errorf("instance %d is missing a name", i)
		}
		if instances[name] {
			return fmt.Errorf("duplicate instance: %q", name)
		}
		instances[name] = true
	}

	sorts := make(map[int]bool)
	for i, step := range rf.Steps {
		if step.Sort <= 0 {
			return fmt.Errorf("step %d is missing 'sort'", i)
		}
		if sorts[step.Sort] {
			return fmt.Errorf("duplicate step sort: %d", step.Sort)
		}
		sorts[step.Sort] = true

		if !step.Type.Valid() {
			return fmt.Errorf("step %d is missing 'type'", step.Sort)
		}
		info := step.Type.Info()
		if step.RandomItem && len(step.Items) == 0 {
			return fmt.Errorf("step %d uses 'random_item' but lists no 'items'", step.Sort)
		}
		if info.ValueRequired && step.Value == "" && !step.RandomItem && step.UseDataFrom == 0 {
			return fmt.Errorf("step %d (%s) must define 'value'", step.Sort, step.Type)
		}
	}

	for _, step := range rf.Steps {
		if step.UseDataFrom == 0 {
			continue
		}
		if !sorts[step.UseDataFrom] {
			return fmt.Errorf("step %d uses data from step %d, which does not exist", step.Sort, step.UseDataFrom)
		}
		if step.UseDataFrom >= step.Sort {
			return fmt.Errorf("step %d uses data from step %d, which does not run before it", step.Sort, step.UseDataFrom)
		}
	}

	return nil
}

// ValidateRecipeHandlers reports kinds used by the recipe that this build
// cannot execute.
func ValidateRecipeHandlers(rf *RecipeFile) error {
	for _, step := range rf.Steps {
		if _, ok := steprunner.HandlerFor(step.Type); !ok {
			return fmt.Errorf("step %d: no handler registered for %q", step.Sort, step.Type)
		}
	}
	return nil
}

// LintRecipe returns non-fatal findings: steps acting on a selection that no
// earlier active step can have produced, and values that the kind ignores.
func LintRecipe(rf *RecipeFile) []string {
	steps := append([]StepFile(nil), rf.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Sort < steps[j].Sort })

	var warnings []string
	selecting := false
	for _, step := range steps {
		if !boolOr(step.Active, true) {
			continue
		}
		info := step.Type.Info()
		if info.RequiresSelection && !selecting {
			warnings = append(warnings, fmt.Sprintf("step %d (%s) needs a selection but no earlier step selects elements", step.Sort, step.Type))
		}
		if !info.ConsumesValue && step.Value != "" {
			warnings = append(warnings, fmt.Sprintf("step %d (%s) ignores its value", step.Sort, step.Type))
		}
		if step.Type.IsFind() {
			selecting = true
		}
	}
	return warnings
}
