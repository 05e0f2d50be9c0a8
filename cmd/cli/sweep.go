package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arnavsurve/scrapebot/pkg/core"
)

type SweepCmd struct{}

// Run executes every due recipe of this instance once.
func (s *SweepCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, g, true)
	if err != nil {
		return err
	}
	defer e.Close()

	instance, err := e.lookupInstance(ctx)
	if err != nil {
		return err
	}

	engine, err := e.engine(ctx)
	if err != nil {
		return err
	}
	scheduler := core.NewScheduler(e.logger, e.store, engine)
	scheduler.Metrics = e.metrics

	summary, err := scheduler.Sweep(ctx, instance)
	e.pushMetrics(ctx)
	if err != nil {
		return fmt.Errorf("sweep %s: %w", summary.ID, err)
	}
	fmt.Fprintf(g.stdout(), "sweep %s: %d run(s), %d failed, %d skipped\n",
		summary.ID, len(summary.Runs), summary.Failed(), len(summary.Skipped))
	return nil
}
