package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/steprunner"
)

func init() {
	steprunner.RegisterHandler(catalog.Log, logValue)
	steprunner.RegisterHandler(catalog.Data, dataValue)
	steprunner.RegisterHandler(catalog.ExecuteJS, executeJS)
}

func logValue(_ context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	sc.Run.Info(sc.Step.Value)
	return steprunner.Continue(), nil
}

func dataValue(_ context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	sc.Run.AddData(sc.Step, sc.Step.Value)
	return steprunner.Continue(), nil
}

func executeJS(ctx context.Context, sc *steprunner.StepContext) (steprunner.Outcome, error) {
	result, err := sc.Session.RunScript(ctx, sc.Step.Value)
	if err != nil {
		return steprunner.Outcome{}, fmt.Errorf("running script: %w", err)
	}
	v, ok, err := scriptValue(result)
	if err != nil {
		return steprunner.Outcome{}, err
	}
	if !ok {
		sc.Run.Info("Ran JavaScript code, no return values retrieved")
		return steprunner.Continue(), nil
	}
	sc.Run.AddData(sc.Step, v)
	sc.Run.Info("Ran some JavaScript code, return values stored as data")
	return steprunner.Continue(), nil
}

// scriptValue renders a decoded script result. Falsy results yield ok=false.
func scriptValue(result any) (string, bool, error) {
	switch v := result.(type) {
	case nil:
		return "", false, nil
	case bool:
		if !v {
			return "", false, nil
		}
		return "true", true, nil
	case string:
		return v, v != "", nil
	case float64:
		if v == 0 {
			return "", false, nil
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	case []any:
		if len(v) == 0 {
			return "", false, nil
		}
	case map[string]any:
		if len(v) == 0 {
			return "", false, nil
		}
	}
	b, err := json.Marshal(result)
	if err != nil {
		return "", false, fmt.Errorf("encoding script result: %w", err)
	}
	return string(b), true, nil
}
