package cli

import (
	"context"
	"fmt"

	"github.com/arnavsurve/scrapebot/pkg/core"
)

type ImportCmd struct {
	File string `arg:"" help:"Recipe YAML file." type:"existingfile"`
}

// Run saves the recipe and assigns it to its instances, or to this instance
// when the file names none.
func (i *ImportCmd) Run(g *Globals) error {
	ctx := context.Background()

	rf, err := core.LoadRecipeFromFile(i.File)
	if err != nil {
		return err
	}
	if err := core.ValidateRecipeHandlers(rf); err != nil {
		return err
	}

	e, err := setup(ctx, g, false)
	if err != nil {
		return err
	}
	defer e.Close()

	recipe := rf.Recipe()
	if err := e.store.SaveRecipe(ctx, recipe); err != nil {
		return err
	}
	e.logger.Info().Int64("recipe_id", recipe.ID).Msgf("Saved recipe %q with %d steps", recipe.Name, len(recipe.Steps))

	instances := rf.Instances
	if len(instances) == 0 {
		instances = []string{e.cfg.Instance.Name}
	}
	for _, name := range instances {
		inst, err := e.store.EnsureInstance(ctx, name)
		if err != nil {
			return fmt.Errorf("registering instance %q: %w", name, err)
		}
		if err := e.store.AssignRecipe(ctx, recipe.ID, inst.ID); err != nil {
			return err
		}
		e.logger.Info().Msgf("Assigned recipe %q to instance %q", recipe.Name, name)
	}

	fmt.Fprintf(g.stdout(), "imported %q (id %d)\n", recipe.Name, recipe.ID)
	return nil
}
