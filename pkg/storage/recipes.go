package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

type recipeRow struct {
	ID          int64  `db:"id"`
	CreatedAt   int64  `db:"created_at"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Interval    int    `db:"interval_minutes"`
	Cookies     bool   `db:"cookies"`
	Active      bool   `db:"active"`
}

type stepRow struct {
	ID            int64  `db:"id"`
	RecipeID      int64  `db:"recipe_id"`
	Sort          int    `db:"sort"`
	Kind          string `db:"kind"`
	Value         string `db:"value"`
	UseRandomItem bool   `db:"use_random_item"`
	UseDataFrom   int    `db:"use_data_from"`
	Active        bool   `db:"active"`
}

type itemRow struct {
	StepID int64  `db:"step_id"`
	Value  string `db:"value"`
}

var recipeCols = []string{"r.id", "r.created_at", "r.name", "r.description", "r.interval_minutes", "r.cookies", "r.active"}

// SaveRecipe inserts r, or replaces the recipe of the same name together with
// its steps. IDs are written back into r.
func (s *Store) SaveRecipe(ctx context.Context, r *types.Recipe) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		sb := sqlbuilder.SQLite.NewSelectBuilder()
		sb.Select("id").From("recipe").Where(sb.Equal("name", r.Name))
		var id int64
		err := get(ctx, tx, &id, sb)
		switch {
		case errors.Is(err, ErrNotFound):
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.InsertInto("recipe")
			ib.Cols("name", "description", "interval_minutes", "cookies", "active")
			ib.Values(r.Name, r.Description, r.Interval, r.Cookies, r.Active)
			res, err := exec(ctx, tx, ib)
			if err != nil {
				return fmt.Errorf("inserting recipe %q: %w", r.Name, err)
			}
			if id, err = res.LastInsertId(); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("looking up recipe %q: %w", r.Name, err)
		default:
			ub := sqlbuilder.SQLite.NewUpdateBuilder()
			ub.Update("recipe").Set(
				ub.Assign("description", r.Description),
				ub.Assign("interval_minutes", r.Interval),
				ub.Assign("cookies", r.Cookies),
				ub.Assign("active", r.Active),
			).Where(ub.Equal("id", id))
			if _, err := exec(ctx, tx, ub); err != nil {
				return fmt.Errorf("updating recipe %q: %w", r.Name, err)
			}
			db := sqlbuilder.SQLite.NewDeleteBuilder()
			db.DeleteFrom("recipe_step").Where(db.Equal("recipe_id", id))
			if _, err := exec(ctx, tx, db); err != nil {
				return fmt.Errorf("clearing steps of recipe %q: %w", r.Name, err)
			}
		}
		r.ID = id

		for i := range r.Steps {
			step := &r.Steps[i]
			step.RecipeID = id
			ib := sqlbuilder.SQLite.NewInsertBuilder()
			ib.InsertInto("recipe_step")
			ib.Cols("recipe_id", "sort", "kind", "value", "use_random_item", "use_data_from", "active")
			ib.Values(id, step.Sort, step.Kind.String(), step.Value, step.UseRandomItem, step.UseDataFrom, step.Active)
			res, err := exec(ctx, tx, ib)
			if err != nil {
				return fmt.Errorf("inserting step %d of recipe %q: %w", step.Sort, r.Name, err)
			}
			if step.ID, err = res.LastInsertId(); err != nil {
				return err
			}
			if len(step.Items) == 0 {
				continue
			}
			items := sqlbuilder.SQLite.NewInsertBuilder()
			items.InsertInto("recipe_step_item")
			items.Cols("step_id", "value")
			for _, item := range step.Items {
				items.Values(step.ID, item)
			}
			if _, err := exec(ctx, tx, items); err != nil {
				return fmt.Errorf("inserting items of step %d: %w", step.Sort, err)
			}
		}
		return nil
	})
}

// AssignRecipe makes the recipe eligible on the instance. Existing
// assignments keep their cookies.
func (s *Store) AssignRecipe(ctx context.Context, recipeID, instanceID int64) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("recipe_instance")
	ib.Cols("recipe_id", "instance_id")
	ib.Values(recipeID, instanceID)
	ib.SQL("ON CONFLICT (recipe_id, instance_id) DO NOTHING")
	if _, err := exec(ctx, s.db, ib); err != nil {
		return fmt.Errorf("assigning recipe %d to instance %d: %w", recipeID, instanceID, err)
	}
	return nil
}

// RecipeByName loads a recipe with all of its steps.
func (s *Store) RecipeByName(ctx context.Context, name string) (*types.Recipe, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(recipeCols...).From("recipe r").Where(sb.Equal("r.name", name))
	var rows []recipeRow
	if err := selectAll(ctx, s.db, &rows, sb); err != nil {
		return nil, fmt.Errorf("loading recipe %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("recipe %q: %w", name, ErrNotFound)
	}
	recipes, err := s.withSteps(ctx, rows)
	if err != nil {
		return nil, err
	}
	return recipes[0], nil
}

// ActiveRecipesForInstance loads the active recipes assigned to the instance.
func (s *Store) ActiveRecipesForInstance(ctx context.Context, instanceID int64) ([]*types.Recipe, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(recipeCols...).
		From("recipe r").
		Join("recipe_instance ri", "ri.recipe_id = r.id").
		Where(sb.Equal("ri.instance_id", instanceID), sb.Equal("r.active", true)).
		OrderBy("r.id")
	var rows []recipeRow
	if err := selectAll(ctx, s.db, &rows, sb); err != nil {
		return nil, fmt.Errorf("loading recipes of instance %d: %w", instanceID, err)
	}
	return s.withSteps(ctx, rows)
}

func (s *Store) withSteps(ctx context.Context, rows []recipeRow) ([]*types.Recipe, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	recipes := make([]*types.Recipe, len(rows))
	byID := make(map[int64]*types.Recipe, len(rows))
	ids := make([]any, len(rows))
	for i, row := range rows {
		recipes[i] = &types.Recipe{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Active:      row.Active,
			Interval:    row.Interval,
			Cookies:     row.Cookies,
			Created:     fromUnix(row.CreatedAt),
		}
		byID[row.ID] = recipes[i]
		ids[i] = row.ID
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("id", "recipe_id", "sort", "kind", "value", "use_random_item", "use_data_from", "active").
		From("recipe_step").
		Where(sb.In("recipe_id", ids...)).
		OrderBy("recipe_id", "sort")
	var steps []stepRow
	if err := selectAll(ctx, s.db, &steps, sb); err != nil {
		return nil, fmt.Errorf("loading steps: %w", err)
	}
	if len(steps) == 0 {
		return recipes, nil
	}

	stepIDs := make([]any, len(steps))
	for i, st := range steps {
		stepIDs[i] = st.ID
	}
	ib := sqlbuilder.SQLite.NewSelectBuilder()
	ib.Select("step_id", "value").From("recipe_step_item").Where(ib.In("step_id", stepIDs...)).OrderBy("id")
	var items []itemRow
	if err := selectAll(ctx, s.db, &items, ib); err != nil {
		return nil, fmt.Errorf("loading step items: %w", err)
	}
	itemsByStep := map[int64][]string{}
	for _, it := range items {
		itemsByStep[it.StepID] = append(itemsByStep[it.StepID], it.Value)
	}

	for _, st := range steps {
		// Unknown kinds are kept as Invalid so the run fails with a config error.
		kind, err := catalog.ParseKind(st.Kind)
		if err != nil && s.logger != nil {
			s.logger.Warn().Err(err).Int64("step_id", st.ID).Msg("Stored step has an unknown kind")
		}
		r := byID[st.RecipeID]
		r.Steps = append(r.Steps, types.Step{
			ID:            st.ID,
			RecipeID:      st.RecipeID,
			Sort:          st.Sort,
			Kind:          kind,
			Value:         st.Value,
			Active:        st.Active,
			Items:         itemsByStep[st.ID],
			UseRandomItem: st.UseRandomItem,
			UseDataFrom:   st.UseDataFrom,
		})
	}
	return recipes, nil
}
