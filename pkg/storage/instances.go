package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/huandu/go-sqlbuilder"
)

type instanceRow struct {
	ID          int64  `db:"id"`
	CreatedAt   int64  `db:"created_at"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

func (r instanceRow) toInstance() *types.Instance {
	return &types.Instance{ID: r.ID, Name: r.Name, Description: r.Description, Created: fromUnix(r.CreatedAt)}
}

var instanceCols = []string{"id", "created_at", "name", "description"}

// CreateInstance registers a new execution node.
func (s *Store) CreateInstance(ctx context.Context, name, description string) (*types.Instance, error) {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("instance")
	ib.Cols("name", "description")
	ib.Values(name, description)
	if _, err := exec(ctx, s.db, ib); err != nil {
		return nil, fmt.Errorf("creating instance %q: %w", name, err)
	}
	return s.InstanceByName(ctx, name)
}

// EnsureInstance returns the named instance, creating it when missing.
func (s *Store) EnsureInstance(ctx context.Context, name string) (*types.Instance, error) {
	inst, err := s.InstanceByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return s.CreateInstance(ctx, name, "")
	}
	return inst, err
}

func (s *Store) InstanceByName(ctx context.Context, name string) (*types.Instance, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(instanceCols...).From("instance").Where(sb.Equal("name", name))
	var row instanceRow
	if err := get(ctx, s.db, &row, sb); err != nil {
		return nil, fmt.Errorf("instance %q: %w", name, err)
	}
	return row.toInstance(), nil
}

func (s *Store) ListInstances(ctx context.Context) ([]*types.Instance, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(instanceCols...).From("instance").OrderBy("name")
	var rows []instanceRow
	if err := selectAll(ctx, s.db, &rows, sb); err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}
	out := make([]*types.Instance, len(rows))
	for i, r := range rows {
		out[i] = r.toInstance()
	}
	return out, nil
}
