package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

type runRow struct {
	ID         int64 `db:"id"`
	CreatedAt  int64 `db:"created_at"`
	Runtime    int64 `db:"runtime_seconds"`
	RecipeID   int64 `db:"recipe_id"`
	InstanceID int64 `db:"instance_id"`
	Status     int   `db:"status"`
}

func (r runRow) toRun() *types.Run {
	return &types.Run{
		ID:         r.ID,
		RecipeID:   r.RecipeID,
		InstanceID: r.InstanceID,
		Created:    fromUnix(r.CreatedAt),
		Runtime:    time.Duration(r.Runtime) * time.Second,
		Status:     types.RunStatus(r.Status),
	}
}

type logRow struct {
	ID        int64  `db:"id"`
	CreatedAt int64  `db:"created_at"`
	RunID     int64  `db:"run_id"`
	Level     int    `db:"level"`
	Message   string `db:"message"`
}

type dataRow struct {
	ID        int64         `db:"id"`
	CreatedAt int64         `db:"created_at"`
	RunID     int64         `db:"run_id"`
	StepID    sql.NullInt64 `db:"step_id"`
	StepSort  int           `db:"step_sort"`
	Value     string        `db:"value"`
}

var runCols = []string{"id", "created_at", "runtime_seconds", "recipe_id", "instance_id", "status"}

// CreateRun stores a new in-progress run stamped with the database clock.
func (s *Store) CreateRun(ctx context.Context, recipeID, instanceID int64) (*types.Run, error) {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("run")
	ib.Cols("created_at", "recipe_id", "instance_id", "status")
	ib.Values(nowSQL, recipeID, instanceID, int(types.StatusInProgress))
	res, err := exec(ctx, s.db, ib)
	if err != nil {
		return nil, fmt.Errorf("creating run of recipe %d: %w", recipeID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetRun(ctx, id)
}

// SetRunStatus updates only the status and runtime of a run.
func (s *Store) SetRunStatus(ctx context.Context, runID int64, status types.RunStatus, runtime time.Duration) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("run").Set(
		ub.Assign("status", int(status)),
		ub.Assign("runtime_seconds", int64(runtime/time.Second)),
	).Where(ub.Equal("id", runID))
	if _, err := exec(ctx, s.db, ub); err != nil {
		return fmt.Errorf("updating status of run %d: %w", runID, err)
	}
	return nil
}

// FinishRun writes the final status, runtime, log and data of a run.
func (s *Store) FinishRun(ctx context.Context, rc *types.RunContext) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		ub := sqlbuilder.SQLite.NewUpdateBuilder()
		ub.Update("run").Set(
			ub.Assign("status", int(rc.Status)),
			ub.Assign("runtime_seconds", int64(rc.Runtime/time.Second)),
		).Where(ub.Equal("id", rc.RunID))
		if _, err := exec(ctx, tx, ub); err != nil {
			return fmt.Errorf("updating run %d: %w", rc.RunID, err)
		}

		if entries := rc.Log(); len(entries) > 0 {
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.InsertInto("log")
			ib.Cols("created_at", "run_id", "level", "message")
			for _, e := range entries {
				ib.Values(e.Created.Unix(), rc.RunID, int(e.Level), e.Message)
			}
			if _, err := exec(ctx, tx, ib); err != nil {
				return fmt.Errorf("storing log of run %d: %w", rc.RunID, err)
			}
		}

		if entries := rc.Data(); len(entries) > 0 {
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.InsertInto("data")
			ib.Cols("created_at", "run_id", "step_id", "step_sort", "value")
			for _, d := range entries {
				ib.Values(d.Created.Unix(), rc.RunID, nullID(d.StepID), d.StepSort, d.Value)
			}
			if _, err := exec(ctx, tx, ib); err != nil {
				return fmt.Errorf("storing data of run %d: %w", rc.RunID, err)
			}
		}
		return nil
	})
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func (s *Store) GetRun(ctx context.Context, id int64) (*types.Run, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(runCols...).From("run").Where(sb.Equal("id", id))
	var row runRow
	if err := get(ctx, s.db, &row, sb); err != nil {
		return nil, fmt.Errorf("run %d: %w", id, err)
	}
	return row.toRun(), nil
}

// LatestRuns returns up to n runs of the recipe on the instance, newest first.
func (s *Store) LatestRuns(ctx context.Context, recipeID, instanceID int64, n int, successfulOnly bool) ([]*types.Run, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(runCols...).From("run").Where(
		sb.Equal("recipe_id", recipeID),
		sb.Equal("instance_id", instanceID),
	)
	if successfulOnly {
		sb.Where(sb.Equal("status", int(types.StatusSuccess)))
	}
	sb.OrderBy("created_at DESC", "id DESC").Limit(n)
	var rows []runRow
	if err := selectAll(ctx, s.db, &rows, sb); err != nil {
		return nil, fmt.Errorf("loading latest runs of recipe %d: %w", recipeID, err)
	}
	out := make([]*types.Run, len(rows))
	for i, r := range rows {
		out[i] = r.toRun()
	}
	return out, nil
}

// LatestRun returns the newest run, or nil when the recipe never ran there.
func (s *Store) LatestRun(ctx context.Context, recipeID, instanceID int64, successfulOnly bool) (*types.Run, error) {
	runs, err := s.LatestRuns(ctx, recipeID, instanceID, 1, successfulOnly)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// AverageRuntime is the mean runtime of the successful runs of a recipe.
func (s *Store) AverageRuntime(ctx context.Context, recipeID int64) (time.Duration, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("AVG(runtime_seconds)").From("run").Where(
		sb.Equal("recipe_id", recipeID),
		sb.Equal("status", int(types.StatusSuccess)),
	)
	var avg sql.NullFloat64
	if err := get(ctx, s.db, &avg, sb); err != nil {
		return 0, fmt.Errorf("averaging runtime of recipe %d: %w", recipeID, err)
	}
	return time.Duration(avg.Float64 * float64(time.Second)), nil
}

// StepDataInLatestRuns reports whether the step at stepSort stored a
// non-empty value in one of the latest runs of the recipe on the instance.
// The run currently in progress, excludeRunID, is not part of the window.
func (s *Store) StepDataInLatestRuns(ctx context.Context, recipeID, instanceID, excludeRunID int64, stepSort int, runs int) (bool, error) {
	latest := sqlbuilder.SQLite.NewSelectBuilder()
	latest.Select("id").From("run").Where(
		latest.Equal("recipe_id", recipeID),
		latest.Equal("instance_id", instanceID),
		latest.NotEqual("id", excludeRunID),
	).OrderBy("created_at DESC", "id DESC").Limit(runs)

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From("data").Where(
		sb.In("run_id", latest),
		sb.Equal("step_sort", stepSort),
		sb.NotEqual("value", ""),
	)
	var n int
	if err := get(ctx, s.db, &n, sb); err != nil {
		return false, fmt.Errorf("checking data history of recipe %d: %w", recipeID, err)
	}
	return n > 0, nil
}

// RunLog returns the log of a run in insertion order.
func (s *Store) RunLog(ctx context.Context, runID int64) ([]types.LogEntry, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "created_at", "run_id", "level", "message").From("log").Where(sb.Equal("run_id", runID)).OrderBy("id")
	var rows []logRow
	if err := selectAll(ctx, s.db, &rows, sb); err != nil {
		return nil, fmt.Errorf("loading log of run %d: %w", runID, err)
	}
	out := make([]types.LogEntry, len(rows))
	for i, r := range rows {
		out[i] = types.LogEntry{ID: r.ID, RunID: r.RunID, Created: fromUnix(r.CreatedAt), Level: types.LogLevel(r.Level), Message: r.Message}
	}
	return out, nil
}

// RunData returns the data of a run in insertion order.
func (s *Store) RunData(ctx context.Context, runID int64) ([]types.DataEntry, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "created_at", "run_id", "step_id", "step_sort", "value").From("data").Where(sb.Equal("run_id", runID)).OrderBy("id")
	var rows []dataRow
	if err := selectAll(ctx, s.db, &rows, sb); err != nil {
		return nil, fmt.Errorf("loading data of run %d: %w", runID, err)
	}
	out := make([]types.DataEntry, len(rows))
	for i, r := range rows {
		out[i] = types.DataEntry{ID: r.ID, RunID: r.RunID, StepID: r.StepID.Int64, StepSort: r.StepSort, Created: fromUnix(r.CreatedAt), Value: r.Value}
	}
	return out, nil
}
