// Package steprunner applies recipe steps to a browser session.
package steprunner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/screenshot"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

// ScreenshotHistory answers whether a step recorded data in recent runs.
type ScreenshotHistory interface {
	StepDataInLatestRuns(ctx context.Context, recipeID, instanceID, excludeRunID int64, stepSort int, runs int) (bool, error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Interpreter resolves step values and dispatches to handlers.
type Interpreter struct {
	Logger      types.Logger
	Screenshots []screenshot.Sink
	History     ScreenshotHistory
	// HistoryRuns is how many recent runs sometimes_screenshot looks at.
	HistoryRuns int

	Sleep SleepFunc
	Rand  *rand.Rand
}

type Option func(*Interpreter)

func WithScreenshotSinks(sinks ...screenshot.Sink) Option {
	return func(in *Interpreter) { in.Screenshots = append(in.Screenshots, sinks...) }
}

func WithHistory(h ScreenshotHistory, runs int) Option {
	return func(in *Interpreter) {
		in.History = h
		in.HistoryRuns = runs
	}
}

func WithSleep(fn SleepFunc) Option {
	return func(in *Interpreter) { in.Sleep = fn }
}

func WithRand(r *rand.Rand) Option {
	return func(in *Interpreter) { in.Rand = r }
}

// New returns an interpreter using real time and a randomly seeded source.
func New(logger types.Logger, opts ...Option) *Interpreter {
	in := &Interpreter{
		Logger:      logger,
		HistoryRuns: 20,
		Sleep:       Sleep,
		Rand:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Apply runs one step against sess. Configuration problems are recorded on
// rc and reported through the outcome status. Anything else that goes wrong
// is returned as a *StepError.
func (in *Interpreter) Apply(ctx context.Context, sess driver.Session, step types.Step, rc *types.RunContext, prior driver.Selection) (Outcome, error) {
	if !step.Kind.Valid() {
		rc.Error(fmt.Sprintf("Step %d has an unknown type, aborting", step.Sort))
		return Outcome{Status: types.StatusConfigError}, nil
	}
	handler, ok := HandlerFor(step.Kind)
	if !ok {
		rc.Error(fmt.Sprintf("Step %d: no handler for %q, aborting", step.Sort, step.Kind))
		return Outcome{Status: types.StatusCommandNotFound}, nil
	}

	value, err := in.resolveValue(step, rc)
	if errors.Is(err, ErrEmptyCandidateSet) {
		rc.Error(fmt.Sprintf("Step %d (%s): %v", step.Sort, step.Kind, err))
		return Outcome{Status: types.StatusConfigError}, nil
	}
	step.Value = value

	sc := &StepContext{
		Step:    step,
		Prior:   prior,
		Run:     rc,
		Session: sess,
		Logger:  in.Logger,
		in:      in,
	}
	out, err := handler(ctx, sc)
	if err != nil {
		return Outcome{Status: types.StatusError}, &StepError{Sort: step.Sort, Kind: step.Kind, Err: err}
	}
	return out, nil
}

// resolveValue picks the effective value. A step that borrows data never
// draws a random item; a borrow miss falls back to the literal value.
func (in *Interpreter) resolveValue(step types.Step, rc *types.RunContext) (string, error) {
	if step.UseDataFrom > 0 {
		if d, ok := rc.LatestData(step.UseDataFrom); ok {
			rc.Info(fmt.Sprintf("Used data %q from step %d as value", types.Preview(d.Value), step.UseDataFrom))
			return d.Value, nil
		}
		return step.Value, nil
	}
	if step.UseRandomItem {
		if len(step.Items) == 0 {
			return "", ErrEmptyCandidateSet
		}
		item := step.Items[in.Rand.IntN(len(step.Items))]
		rc.AddData(step, item)
		rc.Info(fmt.Sprintf("Randomly chose item %q as value", types.Preview(item)))
		return item, nil
	}
	return step.Value, nil
}
