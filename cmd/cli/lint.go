package cli

import (
	"fmt"
	"os"

	"github.com/arnavsurve/scrapebot/pkg/core"
	"github.com/arnavsurve/scrapebot/pkg/log"
	"github.com/arnavsurve/scrapebot/pkg/log/sinks"
)

type LintCmd struct {
	File string `arg:"" help:"Recipe YAML file." type:"path"`
}

// Run validates a recipe file without touching the database.
func (l *LintCmd) Run(g *Globals) error {
	router := log.NewRouter(sinks.NewConsoleSinkTo(os.Stderr))
	defer router.Close()
	cmdLogger := log.New(router)

	cmdLogger.Info().Msgf("Validating %s", l.File)

	rf, err := core.LoadRecipeFromFile(l.File)
	if err != nil {
		cmdLogger.Error().Err(err).Msgf("Failed to load recipe file %s", l.File)
		return fmt.Errorf("loading recipe file %q: %w", l.File, err)
	}
	if err := core.ValidateRecipeHandlers(rf); err != nil {
		cmdLogger.Error().Err(err).Msg("Recipe uses unsupported steps")
		return err
	}

	warnings := core.LintRecipe(rf)
	for _, w := range warnings {
		cmdLogger.Warn().Str("recipe", rf.Name).Msg(w)
	}

	fmt.Fprintf(g.stdout(), "%s: %d steps, %d warning(s)\n", rf.Name, len(rf.Steps), len(warnings))
	return nil
}
