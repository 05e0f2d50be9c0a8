package types

import (
	"sort"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
)

// Recipe is an ordered list of steps executed against one browser session.
type Recipe struct {
	ID          int64
	Name        string
	Description string
	Active      bool
	// Interval is the minimum number of minutes between two runs on one instance.
	Interval int
	// Cookies enables carrying the cookie jar from one run to the next.
	Cookies bool
	Steps   []Step
	Created time.Time
}

// IntervalDuration returns Interval as a duration.
func (r *Recipe) IntervalDuration() time.Duration {
	return time.Duration(r.Interval) * time.Minute
}

// ActiveSteps returns the active steps ordered by sort.
func (r *Recipe) ActiveSteps() []Step {
	steps := make([]Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		if s.Active {
			steps = append(steps, s)
		}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Sort < steps[j].Sort })
	return steps
}

// StepBySort finds a step of the recipe by its sort position.
func (r *Recipe) StepBySort(sortPos int) (Step, bool) {
	for _, s := range r.Steps {
		if s.Sort == sortPos {
			return s, true
		}
	}
	return Step{}, false
}

// Step is one action of a recipe.
type Step struct {
	ID       int64
	RecipeID int64
	Sort     int
	Kind     catalog.Kind
	Value    string
	Active   bool
	// Items are the candidates drawn from when UseRandomItem is set.
	Items         []string
	UseRandomItem bool
	// UseDataFrom is the sort of an earlier step whose most recent Data in
	// the same run replaces Value. Zero disables borrowing.
	UseDataFrom int
}

// Instance is a named execution node.
type Instance struct {
	ID          int64
	Name        string
	Description string
	Created     time.Time
}
