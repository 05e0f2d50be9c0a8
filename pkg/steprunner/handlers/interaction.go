package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/steprunner"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

func init() {
	steprunner.RegisterHandler(catalog.Click, click)
	steprunner.RegisterHandler(catalog.Submit, submit)
	steprunner.RegisterHandler(catalog.Write, write)
	steprunner.RegisterHandler(catalog.WriteSlowly, writeSlowly)
	steprunner.RegisterHandler(catalog.Pause, pause)
	steprunner.RegisterHandler(catalog.ScrollTo, scrollTo)
}

func click(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	el := sc.Prior.First()
	if el == nil {
		sc.Run.Warn("No element available for clicking")
		return steprunner.Continue(), nil
	}
	if err := sc.Session.Click(ctx, el); err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.Info("Clicked on previously retrieved element")
	return steprunner.Continue(), nil
}

// submit clears the selection afterwards since the form may be gone.
func submit(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	el := sc.Prior.First()
	if el == nil {
		sc.Run.Warn("No element available for submitting")
		return steprunner.Continue(), nil
	}
	if err := sc.Session.Submit(ctx, el); err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.Info("Submitted previously retrieved element")
	sc.Run.Info("Removed previously retrieved element as it may disappear after submit")
	return steprunner.Clear(), nil
}

func write(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	el := sc.Prior.First()
	if el == nil {
		sc.Run.Warn("No element available for typing")
		return steprunner.Continue(), nil
	}
	if err := sc.Session.SendKeys(ctx, el, sc.Step.Value); err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.Info(fmt.Sprintf("Typed %q on previously retrieved element", types.Preview(sc.Step.Value)))
	return steprunner.Continue(), nil
}

func writeSlowly(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	el := sc.Prior.First()
	if el == nil {
		sc.Run.Warn("No element available for typing")
		return steprunner.Continue(), nil
	}
	for _, r := range sc.Step.Value {
		if err := sc.Session.SendKeys(ctx, el, string(r)); err != nil {
			return steprunner.Outcome{}, err
		}
		delay := time.Duration(sc.Uniform(0.1, 1.0) * float64(time.Second))
		if err := sc.Sleep(ctx, delay); err != nil {
			return steprunner.Outcome{}, err
		}
	}
	sc.Run.Info(fmt.Sprintf("Typed %q very slowly on previously retrieved element", types.Preview(sc.Step.Value)))
	return steprunner.Continue(), nil
}

func pause(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	secs, err := strconv.ParseFloat(strings.TrimSpace(sc.Step.Value), 64)
	if err != nil || secs < 0 {
		return steprunner.Outcome{}, fmt.Errorf("pause needs a number of seconds, got %q", sc.Step.Value)
	}
	d := sc.Jitter(time.Duration(secs * float64(time.Second)))
	if err := sc.Sleep(ctx, d); err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.Info(fmt.Sprintf("Paused for %.1f seconds", d.Seconds()))
	return steprunner.Continue(), nil
}

// scrollScript scrolls in steps of step pixels every 20ms until limit pixels
// are covered, or until the page stops moving when limit is negative.
func scrollScript(step, limit int) string {
	return fmt.Sprintf(`function scrollAndWait(step, scrolled, lastPos, limit) {
	if (window.pageYOffset > lastPos && (scrolled <= limit || limit < 0)) {
		lastPos = window.pageYOffset;
		window.scrollBy(0, step);
		setTimeout(scrollAndWait, 20, step, scrolled + step, lastPos, limit);
	}
}
scrollAndWait(%d, 0, -1, %d);`, step, limit)
}

func scrollTo(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	limit, err := strconv.Atoi(strings.TrimSpace(sc.Step.Value))
	if err != nil || limit <= 0 {
		limit = -1
		sc.Run.Info("Scrolling to the bottom of the page")
	} else {
		sc.Run.Info(fmt.Sprintf("Scrolling for %d pixels", limit))
	}
	step := 10
	if limit > 0 && limit < step {
		step = limit
	}
	if _, err := sc.Session.RunScript(ctx, scrollScript(step, limit)); err != nil {
		return steprunner.Outcome{}, fmt.Errorf("scrolling: %w", err)
	}
	return steprunner.Continue(), nil
}
