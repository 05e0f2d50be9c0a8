package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/steprunner"
)

func init() {
	steprunner.RegisterHandler(catalog.Screenshot, fullScreenshot)
	steprunner.RegisterHandler(catalog.SometimesScreenshot, sometimesScreenshot)
	steprunner.RegisterHandler(catalog.ElementScreenshot, elementScreenshot)
}

func capture(ctx context.Context, sc *steprunner.StepContext, el driver.Element) ([]string, error) {
	img, err := sc.Session.Screenshot(ctx, el)
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return sc.StoreScreenshot(ctx, img)
}

func fullScreenshot(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	refs, err := capture(ctx, sc, nil)
	if err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.Info(fmt.Sprintf("Screenshot stored as %s and referenced as data", strings.Join(refs, ", ")))
	return steprunner.Continue(), nil
}

// sometimesScreenshot skips the capture when one of the recent runs already
// stored one for this step.
func sometimesScreenshot(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	taken, err := sc.RecentlyRecorded(ctx)
	if err != nil {
		return steprunner.Outcome{}, fmt.Errorf("checking screenshot history: %w", err)
	}
	if taken {
		sc.Run.Info("No screenshot taken this time")
		return steprunner.Continue(), nil
	}
	return fullScreenshot(ctx, sc)
}

func elementScreenshot(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	el := sc.Prior.First()
	if el == nil {
		sc.Run.Warn("No element available to screenshot")
		return steprunner.Continue(), nil
	}
	refs, err := capture(ctx, sc, el)
	if err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.Info(fmt.Sprintf("Element screenshot stored as %s and referenced as data", strings.Join(refs, ", ")))
	return steprunner.Continue(), nil
}
