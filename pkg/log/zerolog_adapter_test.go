package log_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/log"
	"github.com/arnavsurve/scrapebot/pkg/security"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter(t *testing.T) {
	out := &bytes.Buffer{}
	logger := log.NewZerologAdapter(zerolog.New(out))

	logger.Info().
		Str("unit", "test").
		Int("n", 1).
		Int64("run_id", 7).
		Bool("ok", true).
		Dur("took", time.Second).
		Msg("hello")

	assert.Contains(t, out.String(), `"unit":"test"`)
	assert.Contains(t, out.String(), `"run_id":7`)
	assert.Contains(t, out.String(), `"ok":true`)
}

type memorySink struct {
	events []*log.LogEvent
	closed bool
}

func (m *memorySink) Write(e *log.LogEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

func TestRouterRedactsAndFansOut(t *testing.T) {
	a, b := &memorySink{}, &memorySink{}
	router := log.NewRouter(a, b)
	router.SetRedactor(security.NewRedactor("hunter2"))
	logger := log.New(router).With().Str("recipe", "news").Logger()

	logger.Warn().Str("dsn", "user:hunter2@host").Msg("connecting with hunter2")

	for _, sink := range []*memorySink{a, b} {
		require.Len(t, sink.events, 1)
		evt := sink.events[0]
		assert.Equal(t, types.WarnLevel, evt.Level)
		assert.Equal(t, "connecting with ********", evt.Message)
		assert.Equal(t, "user:********@host", evt.Fields["dsn"])
		assert.Equal(t, "news", evt.Fields["recipe"])
		assert.False(t, evt.Timestamp.IsZero())
	}

	require.NoError(t, router.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestRouterMinLevel(t *testing.T) {
	sink := &memorySink{}
	router := log.NewRouter(sink)
	router.SetMinLevel(types.WarnLevel)
	logger := log.New(router)

	logger.Info().Msg("dropped")
	logger.Error().Msg("kept")

	require.Len(t, sink.events, 1)
	assert.Equal(t, "kept", sink.events[0].Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, types.DebugLevel, log.ParseLevel("debug"))
	assert.Equal(t, types.WarnLevel, log.ParseLevel("warn"))
	assert.Equal(t, types.InfoLevel, log.ParseLevel(""))
	assert.Equal(t, types.InfoLevel, log.ParseLevel("loud"))
}
