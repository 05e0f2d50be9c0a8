package core_test

import (
	"testing"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRecipeFixture(t *testing.T) {
	rf, err := core.LoadRecipeFromFile("testdata/login.yml")
	require.NoError(t, err)
	require.NoError(t, core.ValidateRecipeHandlers(rf))

	assert.Equal(t, []string{"node-1"}, rf.Instances)

	r := rf.Recipe()
	assert.Equal(t, "login-check", r.Name)
	assert.True(t, r.Active)
	assert.True(t, r.Cookies)
	assert.Equal(t, 30, r.Interval)
	require.Len(t, r.Steps, 6)

	for i, s := range r.Steps {
		assert.Equal(t, i+1, s.Sort)
	}
	assert.Equal(t, catalog.FindByName, r.Steps[1].Kind)
	assert.True(t, r.Steps[2].UseRandomItem)
	assert.Equal(t, []string{"alice", "bob"}, r.Steps[2].Items)
	assert.Equal(t, 2, r.Steps[4].UseDataFrom)
	assert.False(t, r.Steps[5].Active)
	assert.Len(t, r.ActiveSteps(), 5)
}

func TestLoadBrokenRecipeFixture(t *testing.T) {
	_, err := core.LoadRecipeFromFile("testdata/broken.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (navigate) must define 'value'")

	_, err = core.LoadRecipeFromFile("testdata/missing.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading recipe file")
}

func TestParseRecipeErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "no name", doc: "steps: []\n", wantErr: "missing 'name'"},
		{name: "unknown kind", doc: "name: r\nsteps:\n  - type: hover\n", wantErr: "unknown step kind"},
		{name: "missing type", doc: "name: r\nsteps:\n  - value: x\n", wantErr: "missing 'type'"},
		{name: "duplicate sort", doc: "name: r\nsteps:\n  - {sort: 1, type: go_back}\n  - {sort: 1, type: go_forward}\n", wantErr: "duplicate step sort"},
		{name: "partial sorts", doc: "name: r\nsteps:\n  - {sort: 1, type: go_back}\n  - {type: go_forward}\n", wantErr: "missing 'sort'"},
		{name: "random without items", doc: "name: r\nsteps:\n  - {type: write, random_item: true}\n", wantErr: "lists no 'items'"},
		{name: "forward reference", doc: "name: r\nsteps:\n  - {type: log, use_data_from: 2}\n  - {type: get_pagetitle}\n", wantErr: "does not run before it"},
		{name: "dangling reference", doc: "name: r\nsteps:\n  - {type: log, use_data_from: 9}\n", wantErr: "does not exist"},
		{name: "negative interval", doc: "name: r\ninterval: -5\n", wantErr: "negative interval"},
		{name: "duplicate instance", doc: "name: r\ninstances: [a, a]\n", wantErr: "duplicate instance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.ParseRecipe([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLintRecipe(t *testing.T) {
	rf, err := core.ParseRecipe([]byte(`
name: r
steps:
  - type: click
  - type: go_back
    value: ignored
  - type: find_by_css
    value: a
  - type: click
`))
	require.NoError(t, err)

	warnings := core.LintRecipe(rf)
	assert.Equal(t, []string{
		"step 1 (click) needs a selection but no earlier step selects elements",
		"step 2 (go_back) ignores its value",
	}, warnings)
}
