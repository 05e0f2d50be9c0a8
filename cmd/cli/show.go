package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/fatih/color"
)

type ShowCmd struct {
	RunID int64 `arg:"" name:"run-id" help:"Run to show."`
	JSON  bool  `help:"Print the run as JSON."`
}

func (s *ShowCmd) Run(g *Globals) error {
	ctx := context.Background()
	e, err := setup(ctx, g, false)
	if err != nil {
		return err
	}
	defer e.Close()

	run, err := e.store.GetRun(ctx, s.RunID)
	if err != nil {
		return err
	}
	entries, err := e.store.RunLog(ctx, run.ID)
	if err != nil {
		return err
	}
	data, err := e.store.RunData(ctx, run.ID)
	if err != nil {
		return err
	}

	report := RunReport{Run: run, Log: entries, Data: data}
	if s.JSON {
		return report.WriteJSON(g.stdout())
	}
	return report.WriteText(g.stdout())
}

// RunReport is the read-only view of a finished run.
type RunReport struct {
	Run  *types.Run
	Log  []types.LogEntry
	Data []types.DataEntry
}

type logJSON struct {
	Created time.Time `json:"created"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type dataJSON struct {
	Created  time.Time `json:"created"`
	StepSort int       `json:"step_sort"`
	Value    string    `json:"value"`
}

func (r RunReport) WriteJSON(w io.Writer) error {
	doc := struct {
		ID       int64      `json:"id"`
		RecipeID int64      `json:"recipe_id"`
		Instance int64      `json:"instance_id"`
		Created  time.Time  `json:"created"`
		Runtime  float64    `json:"runtime_seconds"`
		Status   string     `json:"status"`
		Log      []logJSON  `json:"log"`
		Data     []dataJSON `json:"data"`
	}{
		ID:       r.Run.ID,
		RecipeID: r.Run.RecipeID,
		Instance: r.Run.InstanceID,
		Created:  r.Run.Created,
		Runtime:  r.Run.Runtime.Seconds(),
		Status:   r.Run.Status.String(),
		Log:      make([]logJSON, 0, len(r.Log)),
		Data:     make([]dataJSON, 0, len(r.Data)),
	}
	for _, l := range r.Log {
		doc.Log = append(doc.Log, logJSON{Created: l.Created, Level: l.Level.String(), Message: l.Message})
	}
	for _, d := range r.Data {
		doc.Data = append(doc.Data, dataJSON{Created: d.Created, StepSort: d.StepSort, Value: d.Value})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

var logLevelColor = map[types.LogLevel]func(format string, a ...any) string{
	types.LogInfo:    color.GreenString,
	types.LogWarning: color.YellowString,
	types.LogError:   color.RedString,
}

func (r RunReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Run %d  recipe %d  instance %d\n", r.Run.ID, r.Run.RecipeID, r.Run.InstanceID)
	fmt.Fprintf(w, "Started %s  runtime %s  status %s\n\n",
		r.Run.Created.Format(time.RFC3339), r.Run.Runtime, r.Run.Status)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLEVEL\tMESSAGE")
	for _, l := range r.Log {
		level := l.Level.String()
		if paint, ok := logLevelColor[l.Level]; ok {
			level = paint("%s", level)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Created.Format("15:04:05"), level, l.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Data) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tVALUE")
	for _, d := range r.Data {
		fmt.Fprintf(tw, "%d\t%s\n", d.StepSort, d.Value)
	}
	return tw.Flush()
}
