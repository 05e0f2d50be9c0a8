package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type RunCmd struct {
	Recipe string `help:"Name of the recipe to run." required:""`
}

// Run executes one recipe now, ignoring its interval.
func (r *RunCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, g, true)
	if err != nil {
		return err
	}
	defer e.Close()

	recipe, err := e.store.RecipeByName(ctx, r.Recipe)
	if err != nil {
		return err
	}
	instance, err := e.lookupInstance(ctx)
	if err != nil {
		return err
	}

	engine, err := e.engine(ctx)
	if err != nil {
		return err
	}
	rc, err := engine.ExecuteRecipe(ctx, recipe, instance)
	e.pushMetrics(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "run %d of %q finished with status %s\n", rc.RunID, recipe.Name, rc.Status)
	return nil
}
