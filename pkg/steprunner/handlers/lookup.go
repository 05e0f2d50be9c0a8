package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/steprunner"
)

type lookup struct {
	kind     catalog.Kind
	by       driver.Strategy
	single   bool
	describe string
}

var lookups = []lookup{
	{catalog.FindByID, driver.ByID, true, "ID"},
	{catalog.FindByName, driver.ByName, true, "name"},
	{catalog.FindByClass, driver.ByClass, false, "class"},
	{catalog.FindByTag, driver.ByTag, false, "tag"},
	{catalog.FindByLink, driver.ByLinkText, false, "link text"},
	{catalog.FindByLinkPartial, driver.ByPartialLinkText, false, "partial link text"},
	{catalog.FindByCSS, driver.ByCSS, false, "CSS selector"},
	{catalog.FindByXPath, driver.ByXPath, false, "XPath"},
}

func init() {
	for _, l := range lookups {
		steprunner.RegisterHandler(l.kind, find(l))
	}
	steprunner.RegisterHandler(catalog.RandomSelect, randomSelect)
	steprunner.RegisterHandler(catalog.UnsetPriorElement, unsetPriorElement)
}

// find never fails on a missing match: the selection is cleared and "0" is
// recorded instead.
func find(l lookup) steprunner.Handler {
	return func(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
		query := sc.Step.Value
		var sel driver.Selection
		if l.single {
			el, err := sc.Session.FindOne(ctx, l.by, query)
			switch {
			case errors.Is(err, driver.ErrNotFound):
			case err != nil:
				return steprunner.Outcome{}, err
			default:
				sel = driver.Selection{el}
			}
		} else {
			found, err := sc.Session.FindMany(ctx, l.by, query)
			if err != nil && !errors.Is(err, driver.ErrNotFound) {
				return steprunner.Outcome{}, err
			}
			sel = found
		}

		if len(sel) == 0 {
			sc.Run.AddData(sc.Step, "0")
			sc.Run.Warn(fmt.Sprintf("No element with %s %q found (stored 0 as data)", l.describe, query))
			return steprunner.Clear(), nil
		}
		count := strconv.Itoa(len(sel))
		sc.Run.AddData(sc.Step, count)
		sc.Run.Info(fmt.Sprintf("Found %s element(s) with %s %q (stored %s as data)", count, l.describe, query, count))
		return steprunner.Select(sel), nil
	}
}

func randomSelect(_ context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	switch n := len(sc.Prior); n {
	case 0:
		sc.Run.Warn("No element from previous step found, hence no element randomly selected")
		return steprunner.Continue(), nil
	case 1:
		sc.Run.AddData(sc.Step, "0")
		sc.Run.Info("Only one element from previous step found, so this was selected \"randomly\"")
		return steprunner.Select(sc.Prior), nil
	default:
		i := sc.IntN(n)
		sc.Run.AddData(sc.Step, strconv.Itoa(i+1))
		sc.Run.Info(fmt.Sprintf("Randomly selected element %d/%d (stored %d as data)", i+1, n, i+1))
		return steprunner.Select(driver.Selection{sc.Prior[i]}), nil
	}
}

func unsetPriorElement(_ context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	if len(sc.Prior) > 0 {
		sc.Run.Info("Previously retrieved element removed")
	}
	return steprunner.Clear(), nil
}
