// Package handlers registers the behavior of every catalog kind with the
// steprunner. Import it for its side effects.
package handlers

import (
	"context"
	"fmt"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/steprunner"
)

func init() {
	steprunner.RegisterHandler(catalog.Navigate, navigate)
	steprunner.RegisterHandler(catalog.GoBack, goBack)
	steprunner.RegisterHandler(catalog.GoForward, goForward)
}

// navigate loads the URL. With cookie persistence the stored jar can only be
// set once the domain is loaded, so the page is requested a second time.
func navigate(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	url := sc.Step.Value
	if err := sc.Session.Navigate(ctx, url); err != nil {
		return steprunner.Outcome{}, fmt.Errorf("navigating to %q: %w", url, err)
	}
	rc := sc.Run
	if rc.Recipe.Cookies && len(rc.Cookies) > 0 {
		for _, c := range rc.Cookies {
			if err := sc.Session.AddCookie(ctx, c); err != nil {
				return steprunner.Outcome{}, fmt.Errorf("restoring cookie %q: %w", c.Name, err)
			}
		}
		rc.Info("Cookies loaded for browser session")
		if err := sc.Session.Navigate(ctx, url); err != nil {
			return steprunner.Outcome{}, fmt.Errorf("navigating to %q: %w", url, err)
		}
	}
	rc.Info(fmt.Sprintf("Navigated to %q", url))
	return steprunner.Continue(), nil
}

func goBack(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	if err := sc.Session.Back(ctx); err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.Info("Navigated back one page")
	return steprunner.Continue(), nil
}

func goForward(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	if err := sc.Session.Forward(ctx); err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.Info("Navigated forward one page")
	return steprunner.Continue(), nil
}
