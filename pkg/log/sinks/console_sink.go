package sinks

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/log"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/fatih/color"
)

// labelled fields are folded into the line prefix instead of the trailer.
var labelled = map[string]struct{}{
	"recipe":    {},
	"run_id":    {},
	"step_sort": {},
	"step_kind": {},
	"error":     {},
}

type ConsoleSink struct {
	out io.Writer
}

func NewConsoleSink() *ConsoleSink {
	return &ConsoleSink{out: os.Stdout}
}

// NewConsoleSinkTo writes to w instead of stdout.
func NewConsoleSinkTo(w io.Writer) *ConsoleSink {
	return &ConsoleSink{out: w}
}

var levelColorMap = map[types.Level]*color.Color{
	types.DebugLevel: color.New(color.FgCyan),
	types.InfoLevel:  color.New(color.FgGreen),
	types.WarnLevel:  color.New(color.FgYellow),
	types.ErrorLevel: color.New(color.FgRed),
	types.FatalLevel: color.New(color.FgRed, color.Bold),
}

func (c *ConsoleSink) Write(event *log.LogEvent) error {
	levelFmt := color.New(color.FgWhite).SprintFunc()
	if lc, ok := levelColorMap[event.Level]; ok {
		levelFmt = lc.SprintFunc()
	}
	timestampFmt := color.New(color.FgWhite).SprintFunc()

	var b strings.Builder
	fmt.Fprintf(&b, "[%s %s] %s: ",
		levelFmt(strings.ToUpper(event.Level.String())),
		timestampFmt(event.Timestamp.Format(time.RFC3339)),
		color.CyanString(label(event.Fields)),
	)
	b.WriteString(event.Message)
	if errMsg := getStringField(event.Fields, "error"); errMsg != "" {
		fmt.Fprintf(&b, " %s", color.RedString(errMsg))
	}

	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		if _, ok := labelled[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", color.BlueString(k), event.Fields[k])
	}

	_, err := fmt.Fprintln(c.out, b.String())
	return err
}

// label renders recipe/run#id/sort:kind, or "scrapebot" outside a run.
func label(fields map[string]any) string {
	recipe := getStringField(fields, "recipe")
	if recipe == "" {
		return "scrapebot"
	}
	l := recipe
	if id, ok := fields["run_id"]; ok {
		l += fmt.Sprintf("/run#%v", id)
	}
	if sortVal, ok := fields["step_sort"]; ok {
		l += fmt.Sprintf("/%v", sortVal)
		if kind := getStringField(fields, "step_kind"); kind != "" {
			l += ":" + kind
		}
	}
	return l
}

// Helper to safely get string field from LogEvent.Fields
func getStringField(fields map[string]any, key string) string {
	if val, ok := fields[key]; ok {
		if strVal, isStr := val.(string); isStr {
			return strVal
		}
	}
	return ""
}

func (c *ConsoleSink) Close() error {
	return nil
}
