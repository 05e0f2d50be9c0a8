package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavsurve/scrapebot/cmd/cli"
	_ "github.com/arnavsurve/scrapebot/pkg/steprunner/handlers"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipeDoc = `
name: headlines
interval: 60
instances: [node-a, node-b]
steps:
  - type: navigate
    value: https://example.com
  - type: find_by_css
    value: h2
  - type: get_texts
`

func newGlobals(t *testing.T) (*cli.Globals, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "scrapebot.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("instance:\n  name: node-a\ndatabase:\n  path: bot.db\n"), 0o644))
	out := &bytes.Buffer{}
	return &cli.Globals{Config: cfgPath, Stdout: out}, out, dir
}

func TestImportAndListInstances(t *testing.T) {
	g, out, dir := newGlobals(t)
	recipePath := filepath.Join(dir, "headlines.yml")
	require.NoError(t, os.WriteFile(recipePath, []byte(recipeDoc), 0o644))

	require.NoError(t, (&cli.ImportCmd{File: recipePath}).Run(g))
	assert.Contains(t, out.String(), `imported "headlines"`)
	assert.FileExists(t, filepath.Join(dir, "bot.db"))

	out.Reset()
	require.NoError(t, (&cli.InstancesListCmd{}).Run(g))
	assert.Contains(t, out.String(), "node-a")
	assert.Contains(t, out.String(), "node-b")
}

func TestInstancesAddRejectsDuplicates(t *testing.T) {
	g, out, _ := newGlobals(t)

	require.NoError(t, (&cli.InstancesAddCmd{Name: "node-c", Description: "rack 3"}).Run(g))
	assert.Contains(t, out.String(), `added instance "node-c"`)
	assert.Error(t, (&cli.InstancesAddCmd{Name: "node-c"}).Run(g))
}

func TestLint(t *testing.T) {
	g, out, dir := newGlobals(t)
	path := filepath.Join(dir, "r.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: r\nsteps:\n  - type: click\n"), 0o644))

	require.NoError(t, (&cli.LintCmd{File: path}).Run(g))
	assert.Equal(t, "r: 1 steps, 1 warning(s)\n", out.String())

	require.NoError(t, os.WriteFile(path, []byte("name: r\nsteps:\n  - type: navigate\n"), 0o644))
	assert.Error(t, (&cli.LintCmd{File: path}).Run(g))
}

func TestShowMissingRun(t *testing.T) {
	g, _, _ := newGlobals(t)
	err := (&cli.ShowCmd{RunID: 42}).Run(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func sampleReport() cli.RunReport {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return cli.RunReport{
		Run: &types.Run{ID: 7, RecipeID: 1, InstanceID: 2, Created: ts, Runtime: 3 * time.Second, Status: types.StatusSuccess},
		Log: []types.LogEntry{
			{Created: ts, Level: types.LogInfo, Message: `Navigated to "https://example.com"`},
			{Created: ts.Add(time.Second), Level: types.LogWarning, Message: "No element available for clicking"},
		},
		Data: []types.DataEntry{{Created: ts, StepSort: 2, Value: "0"}},
	}
}

func TestRunReportText(t *testing.T) {
	color.NoColor = true
	out := &bytes.Buffer{}
	require.NoError(t, sampleReport().WriteText(out))

	text := out.String()
	assert.Contains(t, text, "Run 7  recipe 1  instance 2")
	assert.Contains(t, text, "status success")
	assert.Contains(t, text, "warning")
	assert.Contains(t, text, "No element available for clicking")
	assert.Contains(t, text, "STEP")
}

func TestRunReportJSON(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, sampleReport().WriteJSON(out))

	var doc struct {
		ID      int64   `json:"id"`
		Status  string  `json:"status"`
		Runtime float64 `json:"runtime_seconds"`
		Log     []struct {
			Level string `json:"level"`
		} `json:"log"`
		Data []struct {
			StepSort int    `json:"step_sort"`
			Value    string `json:"value"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, int64(7), doc.ID)
	assert.Equal(t, "success", doc.Status)
	assert.Equal(t, 3.0, doc.Runtime)
	require.Len(t, doc.Log, 2)
	assert.Equal(t, "warning", doc.Log[1].Level)
	require.Len(t, doc.Data, 1)
	assert.Equal(t, 2, doc.Data[0].StepSort)
}

func TestSweepRequiresRegisteredInstance(t *testing.T) {
	g, out, _ := newGlobals(t)

	err := (&cli.SweepCmd{}).Run(g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `instance "node-a" not found`)

	err = (&cli.RunCmd{Recipe: "headlines"}).Run(g)
	require.Error(t, err)

	require.NoError(t, (&cli.InstancesListCmd{}).Run(g))
	assert.NotContains(t, out.String(), "node-a")

	require.NoError(t, (&cli.InstancesAddCmd{Name: "node-a"}).Run(g))
	out.Reset()
	require.NoError(t, (&cli.SweepCmd{}).Run(g))
	assert.Contains(t, out.String(), "0 run(s), 0 failed, 0 skipped")
}
