package types_test

import (
	"testing"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContextLatestData(t *testing.T) {
	rc := types.NewRunContext(&types.Recipe{}, &types.Instance{}, nil)
	step := types.Step{ID: 7, Sort: 2, Kind: catalog.GetText}

	_, ok := rc.LatestData(2)
	assert.False(t, ok)

	rc.AddData(step, "first")
	rc.AddData(types.Step{ID: 8, Sort: 3}, "other")
	rc.AddData(step, "second")

	got, ok := rc.LatestData(2)
	require.True(t, ok)
	assert.Equal(t, "second", got.Value)
	assert.Equal(t, int64(7), got.StepID)
	assert.Len(t, rc.Data(), 3)
}

func TestRunContextLogOrder(t *testing.T) {
	rc := types.NewRunContext(&types.Recipe{}, &types.Instance{}, nil)
	rc.Info("a")
	rc.Warn("b")
	rc.Error("c")

	entries := rc.Log()
	require.Len(t, entries, 3)
	assert.Equal(t, []types.LogLevel{types.LogInfo, types.LogWarning, types.LogError},
		[]types.LogLevel{entries[0].Level, entries[1].Level, entries[2].Level})
	assert.Equal(t, "c", entries[2].Message)

	entries[0].Message = "mutated"
	assert.Equal(t, "a", rc.Log()[0].Message)
}

func TestRunContextFinish(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rc := types.NewRunContext(&types.Recipe{}, &types.Instance{}, nil)
	rc.Now = func() time.Time { return start.Add(42*time.Second + 300*time.Millisecond) }
	rc.Started = start
	rc.Status = types.StatusInProgress

	rc.Finish()
	assert.Equal(t, types.StatusSuccess, rc.Status)
	assert.Equal(t, 42*time.Second, rc.Runtime)

	rc.Status = types.StatusConfigError
	rc.Finish()
	assert.Equal(t, types.StatusConfigError, rc.Status)
}

func TestActiveStepsOrdered(t *testing.T) {
	r := &types.Recipe{Steps: []types.Step{
		{Sort: 3, Active: true},
		{Sort: 1, Active: true},
		{Sort: 2, Active: false},
	}}
	steps := r.ActiveSteps()
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].Sort)
	assert.Equal(t, 3, steps[1].Sort)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", types.Preview("short"))
	assert.Equal(t, "123456789012345...", types.Preview("1234567890123456789"))
}
