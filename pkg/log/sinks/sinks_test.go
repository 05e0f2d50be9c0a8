package sinks_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/log"
	"github.com/arnavsurve/scrapebot/pkg/log/sinks"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleSinkLabels(t *testing.T) {
	color.NoColor = true
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{
			name:   "outside a run",
			fields: map[string]any{},
			want:   "[INFO 2025-03-01T12:00:00Z] scrapebot: sweeping",
		},
		{
			name:   "run step",
			fields: map[string]any{"recipe": "news", "run_id": float64(4), "step_sort": float64(2), "step_kind": "click"},
			want:   "[INFO 2025-03-01T12:00:00Z] news/run#4/2:click: sweeping",
		},
		{
			name:   "extra fields trail",
			fields: map[string]any{"recipe": "news", "url": "https://example.com", "attempt": float64(1)},
			want:   "[INFO 2025-03-01T12:00:00Z] news: sweeping attempt=1 url=https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			sink := sinks.NewConsoleSinkTo(out)
			require.NoError(t, sink.Write(&log.LogEvent{
				Level:     types.InfoLevel,
				Message:   "sweeping",
				Fields:    tt.fields,
				Timestamp: ts,
			}))
			assert.Equal(t, tt.want+"\n", out.String())
		})
	}
}

func TestSweepFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	sink, err := sinks.NewSweepFileSink(dir, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(sink.Path()), "2025-03-01_12-00-00_")

	require.NoError(t, sink.Write(&log.LogEvent{Level: types.WarnLevel, Message: "one", Fields: map[string]any{"recipe": "news"}}))
	require.NoError(t, sink.Write(&log.LogEvent{Level: types.InfoLevel, Message: "two"}))
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	f, err := os.Open(sink.Path())
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "news", lines[0]["recipe"])
	assert.Equal(t, "two", lines[1]["message"])
}
