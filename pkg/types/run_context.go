package types

import (
	"fmt"
	"time"
)

// RunContext is the in-memory record of one execution. It is written by a
// single goroutine and handed to storage once the run is finished.
type RunContext struct {
	RunID    int64
	Recipe   *Recipe
	Instance *Instance
	Started  time.Time
	Status   RunStatus
	Runtime  time.Duration

	// Cookies is the jar stored on the recipe-instance assignment by the
	// previous run.
	Cookies []Cookie

	// Logger receives a copy of every run log entry. May be nil.
	Logger Logger
	// Now defaults to time.Now.
	Now func() time.Time

	log  []LogEntry
	data []DataEntry
}

// NewRunContext returns a pending run context.
func NewRunContext(recipe *Recipe, instance *Instance, logger Logger) *RunContext {
	return &RunContext{
		Recipe:   recipe,
		Instance: instance,
		Status:   StatusPending,
		Logger:   logger,
		Now:      time.Now,
	}
}

func (rc *RunContext) now() time.Time {
	if rc.Now == nil {
		return time.Now()
	}
	return rc.Now()
}

func (rc *RunContext) append(level LogLevel, msg string) {
	rc.log = append(rc.log, LogEntry{RunID: rc.RunID, Created: rc.now(), Level: level, Message: msg})
	if rc.Logger == nil {
		return
	}
	var evt Event
	switch level {
	case LogWarning:
		evt = rc.Logger.Warn()
	case LogError:
		evt = rc.Logger.Error()
	default:
		evt = rc.Logger.Info()
	}
	evt.Int64("run_id", rc.RunID).Msg(msg)
}

func (rc *RunContext) Info(msg string)  { rc.append(LogInfo, msg) }
func (rc *RunContext) Warn(msg string)  { rc.append(LogWarning, msg) }
func (rc *RunContext) Error(msg string) { rc.append(LogError, msg) }

func (rc *RunContext) Infof(format string, args ...any) { rc.Info(fmt.Sprintf(format, args...)) }
func (rc *RunContext) Warnf(format string, args ...any) { rc.Warn(fmt.Sprintf(format, args...)) }

// AddData records a value produced by step.
func (rc *RunContext) AddData(step Step, value string) {
	rc.data = append(rc.data, DataEntry{
		RunID:    rc.RunID,
		StepID:   step.ID,
		StepSort: step.Sort,
		Created:  rc.now(),
		Value:    value,
	})
}

// LatestData returns the most recent Data entry produced by the step at sortPos.
func (rc *RunContext) LatestData(sortPos int) (DataEntry, bool) {
	for i := len(rc.data) - 1; i >= 0; i-- {
		if rc.data[i].StepSort == sortPos {
			return rc.data[i], true
		}
	}
	return DataEntry{}, false
}

// Log returns a copy of the log entries in insertion order.
func (rc *RunContext) Log() []LogEntry {
	out := make([]LogEntry, len(rc.log))
	copy(out, rc.log)
	return out
}

// Data returns a copy of the data entries in insertion order.
func (rc *RunContext) Data() []DataEntry {
	out := make([]DataEntry, len(rc.data))
	copy(out, rc.data)
	return out
}

// Finish stamps the runtime. In-progress runs become successful.
func (rc *RunContext) Finish() {
	if rc.Status == StatusInProgress || rc.Status == StatusPending {
		rc.Status = StatusSuccess
	}
	if !rc.Started.IsZero() {
		rc.Runtime = rc.now().Sub(rc.Started).Truncate(time.Second)
		if rc.Runtime < 0 {
			rc.Runtime = 0
		}
	}
}

// Preview shortens s for log messages.
func Preview(s string) string {
	const max = 15
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
