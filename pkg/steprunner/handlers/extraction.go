package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/steprunner"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

// reader pulls one string out of an element.
type reader func(ctx context.Context, sc *steprunner.StepContext, el driver.Element) (string, error)

func readText(ctx context.Context, sc *steprunner.StepContext, el driver.Element) (string, error) {
	return sc.Session.Text(ctx, el)
}

func readValue(ctx context.Context, sc *steprunner.StepContext, el driver.Element) (string, error) {
	return sc.Session.Attribute(ctx, el, "value")
}

func readAttribute(ctx context.Context, sc *steprunner.StepContext, el driver.Element) (string, error) {
	return sc.Session.Attribute(ctx, el, sc.Step.Value)
}

func init() {
	steprunner.RegisterHandler(catalog.GetText, first(readText, "text"))
	steprunner.RegisterHandler(catalog.GetTexts, all(readText, "text"))
	steprunner.RegisterHandler(catalog.GetValue, first(readValue, "value"))
	steprunner.RegisterHandler(catalog.GetValues, all(readValue, "value"))
	steprunner.RegisterHandler(catalog.GetAttribute, first(readAttribute, ""))
	steprunner.RegisterHandler(catalog.GetAttributes, all(readAttribute, ""))
	steprunner.RegisterHandler(catalog.GetElementCount, elementCount)
	steprunner.RegisterHandler(catalog.GetPageTitle, pageTitle)
	steprunner.RegisterHandler(catalog.GetHTMLSource, htmlSource)
}

// label names what was read; an empty label means the attribute in the step value.
func label(sc *steprunner.StepContext, what string) string {
	if what == "" {
		return fmt.Sprintf("attribute %q", sc.Step.Value)
	}
	return what
}

func first(read reader, what string) steprunner.Handler {
	return func(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
		el := sc.Prior.First()
		if el == nil {
			sc.Run.Warn(fmt.Sprintf("No element available to get the %s from", label(sc, what)))
			return steprunner.Continue(), nil
		}
		v, err := read(ctx, sc, el)
		if err != nil {
			return steprunner.Outcome{}, err
		}
		sc.Run.AddData(sc.Step, v)
		sc.Run.Info(fmt.Sprintf("Retrieved and stored %s %q of prior element", label(sc, what), types.Preview(v)))
		return steprunner.Continue(), nil
	}
}

func all(read reader, what string) steprunner.Handler {
	return func(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
		for _, el := range sc.Prior {
			v, err := read(ctx, sc, el)
			if err != nil {
				return steprunner.Outcome{}, err
			}
			sc.Run.AddData(sc.Step, v)
		}
		sc.Run.Info(fmt.Sprintf("Stored %s from %d element(s), each as separate data", label(sc, what), len(sc.Prior)))
		return steprunner.Continue(), nil
	}
}

func elementCount(_ context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	n := strconv.Itoa(len(sc.Prior))
	sc.Run.AddData(sc.Step, n)
	sc.Run.Info(fmt.Sprintf("Counted and stored %s element(s)", n))
	return steprunner.Continue(), nil
}

func pageTitle(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	title, err := sc.Session.Title(ctx)
	if err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.AddData(sc.Step, title)
	sc.Run.Info(fmt.Sprintf("Retrieved and stored page title %q", title))
	return steprunner.Continue(), nil
}

func htmlSource(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	html, err := sc.Session.HTMLSource(ctx)
	if err != nil {
		return steprunner.Outcome{}, err
	}
	sc.Run.AddData(sc.Step, html)
	sc.Run.Info("Retrieved and stored HTML source code")
	return steprunner.Continue(), nil
}
