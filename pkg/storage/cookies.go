package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/huandu/go-sqlbuilder"
)

// LoadCookies returns the jar saved on the recipe-instance assignment. An
// unassigned pair yields no cookies.
func (s *Store) LoadCookies(ctx context.Context, recipeID, instanceID int64) ([]types.Cookie, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("cookies_from_last_run").From("recipe_instance").Where(
		sb.Equal("recipe_id", recipeID),
		sb.Equal("instance_id", instanceID),
	)
	var blob string
	err := get(ctx, s.db, &blob, sb)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cookies of recipe %d: %w", recipeID, err)
	}
	var cookies []types.Cookie
	if blob == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(blob), &cookies); err != nil {
		return nil, fmt.Errorf("decoding cookies of recipe %d: %w", recipeID, err)
	}
	return cookies, nil
}

// SaveCookies replaces the jar on the recipe-instance assignment.
func (s *Store) SaveCookies(ctx context.Context, recipeID, instanceID int64, cookies []types.Cookie) error {
	if cookies == nil {
		cookies = []types.Cookie{}
	}
	blob, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("recipe_instance").
		Set(ub.Assign("cookies_from_last_run", string(blob))).
		Where(ub.Equal("recipe_id", recipeID), ub.Equal("instance_id", instanceID))
	res, err := exec(ctx, s.db, ub)
	if err != nil {
		return fmt.Errorf("saving cookies of recipe %d: %w", recipeID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("recipe %d is not assigned to instance %d: %w", recipeID, instanceID, ErrNotFound)
	}
	return nil
}
