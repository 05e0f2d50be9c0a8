package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func LoadRecipeFromFile(path string) (*RecipeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe file %q: %w", path, err)
	}
	return ParseRecipe(data)
}

// ParseRecipe decodes and validates a recipe document. Steps without a sort
// are numbered in file order.
func ParseRecipe(data []byte) (*RecipeFile, error) {
	var rf RecipeFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing recipe YAML: %w", err)
	}

	numberSteps(&rf)
	if err := ValidateRecipeStructure(&rf); err != nil {
		return nil, fmt.Errorf("invalid recipe: %w", err)
	}

	return &rf, nil
}

func numberSteps(rf *RecipeFile) {
	for _, s := range rf.Steps {
		if s.Sort != 0 {
			return
		}
	}
	for i := range rf.Steps {
		rf.Steps[i].Sort = i + 1
	}
}
