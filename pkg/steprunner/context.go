package steprunner

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/screenshot"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

// StepContext is what a handler sees of one step invocation. Step.Value is
// already resolved.
type StepContext struct {
	Step    types.Step
	Prior   driver.Selection
	Run     *types.RunContext
	Session driver.Session
	Logger  types.Logger

	in *Interpreter
}

// Sleep pauses for d.
func (sc *StepContext) Sleep(ctx context.Context, d time.Duration) error {
	return sc.in.Sleep(ctx, d)
}

// IntN returns a uniform int in [0, n).
func (sc *StepContext) IntN(n int) int {
	return sc.in.Rand.IntN(n)
}

// Uniform returns a uniform float in [lo, hi).
func (sc *StepContext) Uniform(lo, hi float64) float64 {
	return lo + sc.in.Rand.Float64()*(hi-lo)
}

// Jitter scales d by a uniform factor in [0.75, 1.25).
func (sc *StepContext) Jitter(d time.Duration) time.Duration {
	return time.Duration(float64(d) * sc.Uniform(0.75, 1.25))
}

// RecentlyRecorded reports whether the step produced data in one of the
// latest runs of this recipe on this instance.
func (sc *StepContext) RecentlyRecorded(ctx context.Context) (bool, error) {
	if sc.in.History == nil || sc.in.HistoryRuns <= 0 {
		return false, nil
	}
	rc := sc.Run
	var instanceID int64
	if rc.Instance != nil {
		instanceID = rc.Instance.ID
	}
	return sc.in.History.StepDataInLatestRuns(ctx, rc.Recipe.ID, instanceID, rc.RunID, sc.Step.Sort, sc.in.HistoryRuns)
}

// StoreScreenshot hands img to every configured sink and records each
// reference as data.
func (sc *StepContext) StoreScreenshot(ctx context.Context, img []byte) ([]string, error) {
	if len(sc.in.Screenshots) == 0 {
		return nil, fmt.Errorf("no screenshot storage configured")
	}
	now := time.Now()
	if sc.Run.Now != nil {
		now = sc.Run.Now()
	}
	name := screenshot.Name(now)
	meta := screenshot.Meta{RunID: sc.Run.RunID, StepID: sc.Step.ID}
	if sc.Run.Instance != nil {
		meta.Instance = sc.Run.Instance.Name
	}

	refs := make([]string, 0, len(sc.in.Screenshots))
	for _, sink := range sc.in.Screenshots {
		ref, err := sink.Store(ctx, img, name, meta)
		if err != nil {
			return refs, err
		}
		sc.Run.AddData(sc.Step, ref)
		refs = append(refs, ref)
	}
	return refs, nil
}
