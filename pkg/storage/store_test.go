package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/storage"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "db", "scrapebot.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecipe() *types.Recipe {
	return &types.Recipe{
		Name:     "headlines",
		Active:   true,
		Interval: 30,
		Cookies:  true,
		Steps: []types.Step{
			{Sort: 1, Kind: catalog.Navigate, Value: "https://example.com", Active: true},
			{Sort: 2, Kind: catalog.FindByCSS, Value: "h2", Active: true},
			{Sort: 3, Kind: catalog.Write, Active: false, UseRandomItem: true, Items: []string{"a", "b"}},
		},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrapebot.db")
	s1, err := storage.Open(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := storage.Open(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestNow(t *testing.T) {
	store := openStore(t)
	now, err := store.Now(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, 5*time.Second)
}

func TestInstances(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	_, err := store.InstanceByName(ctx, "node-1")
	require.ErrorIs(t, err, storage.ErrNotFound)

	created, err := store.CreateInstance(ctx, "node-1", "first")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	again, err := store.EnsureInstance(ctx, "node-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	_, err = store.CreateInstance(ctx, "node-1", "")
	assert.Error(t, err)

	all, err := store.ListInstances(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveAndLoadRecipe(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	r := sampleRecipe()
	require.NoError(t, store.SaveRecipe(ctx, r))
	require.NotZero(t, r.ID)
	for _, s := range r.Steps {
		assert.NotZero(t, s.ID)
	}

	loaded, err := store.RecipeByName(ctx, "headlines")
	require.NoError(t, err)
	assert.Equal(t, 30, loaded.Interval)
	assert.True(t, loaded.Cookies)
	require.Len(t, loaded.Steps, 3)
	assert.Equal(t, catalog.FindByCSS, loaded.Steps[1].Kind)
	assert.Equal(t, []string{"a", "b"}, loaded.Steps[2].Items)
	assert.False(t, loaded.Steps[2].Active)

	r.Steps = r.Steps[:1]
	r.Interval = 5
	require.NoError(t, store.SaveRecipe(ctx, r))
	reloaded, err := store.RecipeByName(ctx, "headlines")
	require.NoError(t, err)
	assert.Equal(t, loaded.ID, reloaded.ID)
	assert.Equal(t, 5, reloaded.Interval)
	assert.Len(t, reloaded.Steps, 1)

	_, err = store.RecipeByName(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestActiveRecipesForInstance(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	inst, err := store.CreateInstance(ctx, "node", "")
	require.NoError(t, err)
	other, err := store.CreateInstance(ctx, "other", "")
	require.NoError(t, err)

	active := sampleRecipe()
	inactive := sampleRecipe()
	inactive.Name = "paused"
	inactive.Active = false
	unassigned := sampleRecipe()
	unassigned.Name = "elsewhere"
	for _, r := range []*types.Recipe{active, inactive, unassigned} {
		require.NoError(t, store.SaveRecipe(ctx, r))
	}
	require.NoError(t, store.AssignRecipe(ctx, active.ID, inst.ID))
	require.NoError(t, store.AssignRecipe(ctx, active.ID, inst.ID))
	require.NoError(t, store.AssignRecipe(ctx, inactive.ID, inst.ID))
	require.NoError(t, store.AssignRecipe(ctx, unassigned.ID, other.ID))

	recipes, err := store.ActiveRecipesForInstance(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "headlines", recipes[0].Name)
	assert.Len(t, recipes[0].Steps, 3)
}

func TestCookies(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	inst, err := store.CreateInstance(ctx, "node", "")
	require.NoError(t, err)
	r := sampleRecipe()
	require.NoError(t, store.SaveRecipe(ctx, r))

	got, err := store.LoadCookies(ctx, r.ID, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	err = store.SaveCookies(ctx, r.ID, inst.ID, []types.Cookie{{Name: "sid"}})
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.AssignRecipe(ctx, r.ID, inst.ID))
	jar := []types.Cookie{{Name: "sid", Value: "abc", Domain: "example.com", Path: "/", Secure: true}}
	require.NoError(t, store.SaveCookies(ctx, r.ID, inst.ID, jar))

	got, err = store.LoadCookies(ctx, r.ID, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, jar, got)
}
