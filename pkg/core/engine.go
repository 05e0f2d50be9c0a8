package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/metrics"
	"github.com/arnavsurve/scrapebot/pkg/steprunner"
	"github.com/arnavsurve/scrapebot/pkg/storage"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

// RunRecorder persists runs and the cookie jar of a recipe-instance assignment.
type RunRecorder interface {
	CreateRun(ctx context.Context, recipeID, instanceID int64) (*types.Run, error)
	FinishRun(ctx context.Context, rc *types.RunContext) error
	SetRunStatus(ctx context.Context, runID int64, status types.RunStatus, runtime time.Duration) error
	LoadCookies(ctx context.Context, recipeID, instanceID int64) ([]types.Cookie, error)
	SaveCookies(ctx context.Context, recipeID, instanceID int64, cookies []types.Cookie) error
}

// StepApplier applies one step. *steprunner.Interpreter implements it.
type StepApplier interface {
	Apply(ctx context.Context, sess driver.Session, step types.Step, rc *types.RunContext, prior driver.Selection) (steprunner.Outcome, error)
}

type RecipeEngine struct {
	Logger      types.Logger
	Driver      driver.Driver
	Interpreter StepApplier
	Runs        RunRecorder
	Session     driver.SessionConfig
	Metrics     *metrics.Metrics

	Sleep steprunner.SleepFunc
	Rand  *rand.Rand
	Now   func() time.Time
}

func NewRecipeEngine(logger types.Logger, drv driver.Driver, interp StepApplier, runs RunRecorder, cfg driver.SessionConfig) *RecipeEngine {
	return &RecipeEngine{
		Logger:      logger,
		Driver:      drv,
		Interpreter: interp,
		Runs:        runs,
		Session:     cfg,
		Sleep:       steprunner.Sleep,
		Rand:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		Now:         time.Now,
	}
}

func (e *RecipeEngine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// ExecuteRecipe runs every active step of recipe on instance and commits the
// run. The returned error is only non-nil when the run could not be created
// or committed; step failures are reported through the run status.
func (e *RecipeEngine) ExecuteRecipe(ctx context.Context, recipe *types.Recipe, instance *types.Instance) (*types.RunContext, error) {
	logger := e.Logger.With().Str("recipe", recipe.Name).Logger()

	run, err := e.Runs.CreateRun(ctx, recipe.ID, instance.ID)
	if err != nil {
		return nil, fmt.Errorf("creating run for recipe %q: %w", recipe.Name, err)
	}

	rc := types.NewRunContext(recipe, instance, logger)
	rc.RunID = run.ID
	rc.Now = e.now
	rc.Started = e.now()
	rc.Status = types.StatusInProgress
	logger.Info().Int64("run_id", run.ID).Msgf("Running recipe %q on %q", recipe.Name, instance.Name)

	if recipe.Cookies {
		cookies, err := e.Runs.LoadCookies(ctx, recipe.ID, instance.ID)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not load cookies from last run")
		}
		rc.Cookies = cookies
	}

	e.execute(ctx, rc, logger)

	rc.Finish()
	if err := e.Runs.FinishRun(ctx, rc); err != nil {
		// Without log and data, but never left in progress.
		if serr := e.Runs.SetRunStatus(context.WithoutCancel(ctx), rc.RunID, rc.Status, rc.Runtime); serr != nil {
			logger.Error().Err(serr).Int64("run_id", rc.RunID).Msg("Could not store final run status")
		}
		return rc, fmt.Errorf("committing run %d of recipe %q: %w", rc.RunID, recipe.Name, err)
	}
	e.Metrics.RecordRun(recipe.Name, rc.Status, rc.Runtime)
	logger.Info().
		Int64("run_id", rc.RunID).
		Str("status", rc.Status.String()).
		Dur("runtime", rc.Runtime).
		Msgf("Finished recipe %q", recipe.Name)
	return rc, nil
}

// execute owns the browser session for the run and closes it exactly once.
func (e *RecipeEngine) execute(ctx context.Context, rc *types.RunContext, logger types.Logger) {
	sess, err := e.Driver.Open(ctx, e.Session)
	if err != nil {
		rc.Error(fmt.Sprintf("Could not start browser session: %v", err))
		rc.Status = types.StatusError
		return
	}
	logger.Debug().Str("browser", e.Session.Browser).Msg("Browser session started")
	defer e.finalize(ctx, sess, rc, logger)

	settle := e.Session.SettleTimeout
	var selection driver.Selection
	for i, step := range rc.Recipe.ActiveSteps() {
		if i > 0 && settle > 0 {
			wait := jitter(e.Rand, settle)
			rc.Info(fmt.Sprintf("Waiting for %.1f seconds", wait.Seconds()))
			if err := e.sleep(ctx, wait); err != nil {
				rc.Error(fmt.Sprintf("Run interrupted: %v", err))
				rc.Status = types.StatusError
				return
			}
		}

		out, err := e.apply(ctx, sess, step, rc, selection)
		e.Metrics.RecordStep(step.Kind, out.Status)
		if err != nil {
			rc.Error(err.Error())
			rc.Status = types.StatusError
			return
		}
		if out.Status != types.StatusSuccess {
			rc.Status = out.Status
			return
		}
		if out.SelectionSet {
			selection = out.Selection
		}
	}
}

// apply converts a panicking handler into a step error.
func (e *RecipeEngine) apply(ctx context.Context, sess driver.Session, step types.Step, rc *types.RunContext, prior driver.Selection) (out steprunner.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = steprunner.Outcome{Status: types.StatusError}
			err = &steprunner.StepError{Sort: step.Sort, Kind: step.Kind, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return e.Interpreter.Apply(ctx, sess, step, rc, prior)
}

func (e *RecipeEngine) finalize(ctx context.Context, sess driver.Session, rc *types.RunContext, logger types.Logger) {
	if rc.Recipe.Cookies {
		e.storeCookies(ctx, sess, rc, logger)
	}
	if err := sess.Close(); err != nil {
		logger.Warn().Err(err).Msg("Closing browser session")
		return
	}
	logger.Debug().Msg("Browser session closed")
}

func (e *RecipeEngine) storeCookies(ctx context.Context, sess driver.Session, rc *types.RunContext, logger types.Logger) {
	cookies, err := sess.Cookies(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Could not read cookies from browser session")
		return
	}
	err = e.Runs.SaveCookies(ctx, rc.Recipe.ID, rc.Instance.ID, cookies)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Warn().Msg("Recipe is not assigned to this instance, cookies dropped")
	case err != nil:
		logger.Warn().Err(err).Msg("Could not store cookies")
	default:
		rc.Info("Cookies stored")
	}
}

func (e *RecipeEngine) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep == nil {
		return steprunner.Sleep(ctx, d)
	}
	return e.Sleep(ctx, d)
}

// jitter spreads d uniformly over [0.75d, 1.25d].
func jitter(r *rand.Rand, d time.Duration) time.Duration {
	f := 0.75
	if r != nil {
		f += r.Float64() * 0.5
	} else {
		f += rand.Float64() * 0.5
	}
	return time.Duration(float64(d) * f)
}
