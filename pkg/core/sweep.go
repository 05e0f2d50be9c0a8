package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/metrics"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/google/uuid"
)

// Skip reasons reported by a sweep.
const (
	SkipNoActiveSteps = "no_active_steps"
	SkipInterval      = "interval"
)

// RecipeSource is what a sweep needs from the data layer.
type RecipeSource interface {
	ActiveRecipesForInstance(ctx context.Context, instanceID int64) ([]*types.Recipe, error)
	LatestRun(ctx context.Context, recipeID, instanceID int64, successfulOnly bool) (*types.Run, error)
	// Now is the data layer's clock. Run ages are measured against it.
	Now(ctx context.Context) (time.Time, error)
}

type RecipeRunner interface {
	ExecuteRecipe(ctx context.Context, recipe *types.Recipe, instance *types.Instance) (*types.RunContext, error)
}

type Scheduler struct {
	Logger  types.Logger
	Source  RecipeSource
	Runner  RecipeRunner
	Metrics *metrics.Metrics
	Rand    *rand.Rand
}

func NewScheduler(logger types.Logger, source RecipeSource, runner RecipeRunner) *Scheduler {
	return &Scheduler{
		Logger: logger,
		Source: source,
		Runner: runner,
		Rand:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SweepSummary describes what one sweep did.
type SweepSummary struct {
	ID       string
	Instance string
	Started  time.Time
	Duration time.Duration
	Runs     []*types.RunContext
	// Skipped maps recipe names to a Skip* reason.
	Skipped map[string]string
}

// Failed counts runs that did not end in success.
func (s *SweepSummary) Failed() int {
	n := 0
	for _, rc := range s.Runs {
		if rc.Status != types.StatusSuccess {
			n++
		}
	}
	return n
}

// Sweep runs every due recipe assigned to instance, one after the other, in
// random order. A failing recipe does not stop the sweep; infrastructure
// errors are collected and returned together.
func (s *Scheduler) Sweep(ctx context.Context, instance *types.Instance) (*SweepSummary, error) {
	summary := &SweepSummary{
		ID:       uuid.NewString(),
		Instance: instance.Name,
		Started:  time.Now(),
		Skipped:  make(map[string]string),
	}
	logger := s.Logger.With().Str("sweep_id", summary.ID).Logger()

	recipes, err := s.Source.ActiveRecipesForInstance(ctx, instance.ID)
	if err != nil {
		return summary, fmt.Errorf("loading recipes for instance %q: %w", instance.Name, err)
	}
	s.shuffle(recipes)
	logger.Info().Int("recipes", len(recipes)).Msgf("Sweeping %d recipes on %q", len(recipes), instance.Name)

	var errs []error
	for _, recipe := range recipes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		reason, err := s.skipReason(ctx, recipe, instance)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if reason != "" {
			summary.Skipped[recipe.Name] = reason
			s.Metrics.RecordSkip(reason)
			logger.Info().Str("recipe", recipe.Name).Str("reason", reason).Msgf("Skipping recipe %q", recipe.Name)
			continue
		}

		rc, err := s.Runner.ExecuteRecipe(ctx, recipe, instance)
		if rc != nil {
			summary.Runs = append(summary.Runs, rc)
		}
		if err != nil {
			logger.Error().Err(err).Str("recipe", recipe.Name).Msg("Recipe run failed")
			errs = append(errs, err)
		}
	}

	summary.Duration = time.Since(summary.Started)
	s.Metrics.RecordSweep(summary.Started, summary.Duration)
	logger.Info().
		Int("runs", len(summary.Runs)).
		Int("failed", summary.Failed()).
		Int("skipped", len(summary.Skipped)).
		Dur("duration", summary.Duration).
		Msg("Sweep finished")
	return summary, errors.Join(errs...)
}

func (s *Scheduler) skipReason(ctx context.Context, recipe *types.Recipe, instance *types.Instance) (string, error) {
	if len(recipe.ActiveSteps()) == 0 {
		return SkipNoActiveSteps, nil
	}
	if recipe.Interval <= 0 {
		return "", nil
	}
	latest, err := s.Source.LatestRun(ctx, recipe.ID, instance.ID, false)
	if err != nil {
		return "", fmt.Errorf("latest run of recipe %q: %w", recipe.Name, err)
	}
	if latest == nil {
		return "", nil
	}
	now, err := s.Source.Now(ctx)
	if err != nil {
		return "", fmt.Errorf("reading database clock: %w", err)
	}
	if now.Sub(latest.Created) < recipe.IntervalDuration() {
		return SkipInterval, nil
	}
	return "", nil
}

func (s *Scheduler) shuffle(recipes []*types.Recipe) {
	swap := func(i, j int) { recipes[i], recipes[j] = recipes[j], recipes[i] }
	if s.Rand == nil {
		rand.Shuffle(len(recipes), swap)
		return
	}
	s.Rand.Shuffle(len(recipes), swap)
}
