package steprunner

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/arnavsurve/scrapebot/pkg/catalog"
	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This package's tests do not import the handlers package, so the registry
// only holds what the tests register.

func TestApplyCommandNotFound(t *testing.T) {
	in := New(nil)
	rc := types.NewRunContext(&types.Recipe{}, &types.Instance{}, nil)

	out, err := in.Apply(context.Background(), nil, types.Step{Sort: 1, Kind: catalog.GoForward}, rc, nil)

	require.NoError(t, err)
	assert.Equal(t, types.StatusCommandNotFound, out.Status)
	require.Len(t, rc.Log(), 1)
	assert.Equal(t, types.LogError, rc.Log()[0].Level)
}

func TestResolveValue(t *testing.T) {
	in := New(nil, WithRand(rand.New(rand.NewPCG(3, 4))))

	tests := []struct {
		name    string
		step    types.Step
		seed    map[int]string
		want    string
		anyOf   []string
		wantErr error
	}{
		{name: "literal", step: types.Step{Value: "lit"}, want: "lit"},
		{name: "borrowed", step: types.Step{Value: "lit", UseDataFrom: 1}, seed: map[int]string{1: "borrowed"}, want: "borrowed"},
		{name: "borrow miss falls through", step: types.Step{Value: "lit", UseDataFrom: 2}, seed: map[int]string{1: "x"}, want: "lit"},
		{name: "borrow miss skips random", step: types.Step{Sort: 2, Value: "lit", UseDataFrom: 1, UseRandomItem: true, Items: []string{"rnd"}}, want: "lit"},
		{name: "borrow miss with empty items", step: types.Step{Sort: 2, Value: "lit", UseDataFrom: 1, UseRandomItem: true}, want: "lit"},
		{name: "borrow beats random", step: types.Step{UseDataFrom: 1, UseRandomItem: true, Items: []string{"a"}}, seed: map[int]string{1: "b"}, want: "b"},
		{name: "random", step: types.Step{Sort: 3, UseRandomItem: true, Items: []string{"a", "b"}}, anyOf: []string{"a", "b"}},
		{name: "random empty", step: types.Step{UseRandomItem: true}, wantErr: ErrEmptyCandidateSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := types.NewRunContext(&types.Recipe{}, &types.Instance{}, nil)
			for sortPos, v := range tt.seed {
				rc.AddData(types.Step{Sort: sortPos}, v)
			}
			got, err := in.resolveValue(tt.step, rc)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.anyOf != nil {
				assert.Contains(t, tt.anyOf, got)
				last, ok := rc.LatestData(tt.step.Sort)
				require.True(t, ok)
				assert.Equal(t, got, last.Value)
				return
			}
			assert.Equal(t, tt.want, got)
			if tt.step.UseRandomItem {
				_, drew := rc.LatestData(tt.step.Sort)
				assert.False(t, drew)
			}
		})
	}
}

func TestRegisterHandlerRejectsInvalidKind(t *testing.T) {
	assert.Panics(t, func() { RegisterHandler(catalog.Invalid, nil) })
}
