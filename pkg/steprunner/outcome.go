package steprunner

import (
	"errors"
	"fmt"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/driver"
	"github.com/arnavsurve/scrapebot/pkg/types"
)

// ErrEmptyCandidateSet is returned when a step draws a random item from an
// empty list.
var ErrEmptyCandidateSet = errors.New("random item requested but step has no items")

// Outcome is the result of applying one step.
type Outcome struct {
	Status types.RunStatus
	// Selection is the step's own selection. It only replaces the carried
	// selection when SelectionSet is true.
	Selection    driver.Selection
	SelectionSet bool
}

// Continue leaves the carried selection untouched.
func Continue() Outcome {
	return Outcome{Status: types.StatusSuccess}
}

// Select replaces the carried selection.
func Select(sel driver.Selection) Outcome {
	return Outcome{Status: types.StatusSuccess, Selection: sel, SelectionSet: true}
}

// Clear drops the carried selection.
func Clear() Outcome {
	return Outcome{Status: types.StatusSuccess, SelectionSet: true}
}

// StepError wraps an unexpected failure while applying a step.
type StepError struct {
	Sort int
	Kind catalog.Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Sort, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
