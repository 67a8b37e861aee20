package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func static(name string, idx map[string]Item) Source {
	return SourceFunc{Label: name, Fn: func(context.Context) (map[string]Item, error) { return idx, nil }}
}

func failing(name string, err error) Source {
	return SourceFunc{Label: name, Fn: func(context.Context) (map[string]Item, error) { return nil, err }}
}

func TestReconcile(t *testing.T) {
	store := static("store", map[string]Item{
		"Item":  {Records: 3, Attrs: map[string]string{"columns": "5"}},
		"Quest": {Records: 2},
		"Skill": {Records: 7},
	})
	build := static("build", map[string]Item{
		"Item":  {Records: 3, Attrs: map[string]string{"columns": "4"}},
		"Quest": {Records: 1},
		"Map":   {Records: -1},
	})

	report, err := Reconcile(context.Background(), store, build)
	require.NoError(t, err)

	assert.Equal(t, []string{"store", "build"}, report.Sources)
	require.Len(t, report.Results, 4)
	assert.Equal(t, []string{"Item", "Map", "Quest", "Skill"}, []string{
		report.Results[0].Key, report.Results[1].Key, report.Results[2].Key, report.Results[3].Key,
	})

	item := report.Results[0]
	assert.Equal(t, []string{"columns: store=5 build=4"}, item.Mismatch)
	assert.False(t, item.OK())

	mapRes := report.Results[1]
	assert.Equal(t, []string{"store"}, mapRes.Missing(report.Sources))
	assert.Empty(t, mapRes.Mismatch)

	quest := report.Results[2]
	assert.Equal(t, []string{"records: store=2 build=1"}, quest.Mismatch)

	skill := report.Results[3]
	assert.Equal(t, []string{"build"}, skill.Missing(report.Sources))

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Mismatches)
	assert.Equal(t, map[string]int{"store": 1, "build": 1}, report.Summary.Missing)
	assert.Len(t, report.Problems(), 4)
}

func TestReconcile_Agreement(t *testing.T) {
	a := static("a", map[string]Item{"T": {Records: 2, Attrs: map[string]string{"tag": "1"}}})
	b := static("b", map[string]Item{"T": {Records: -1, Attrs: map[string]string{"tag": "1"}}})
	c := static("c", map[string]Item{"T": {Records: 2}})

	report, err := Reconcile(context.Background(), a, b, c)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].OK())
	assert.Empty(t, report.Problems())
}

func TestReconcile_ErrorHandling(t *testing.T) {
	tests := []struct {
		name      string
		sources   []Source
		expectErr string
	}{
		{
			name:      "Store load error",
			sources:   []Source{failing("store", fmt.Errorf("db error")), static("build", nil)},
			expectErr: "failed to load store: db error",
		},
		{
			name:      "Build load error",
			sources:   []Source{static("store", nil), failing("build", fmt.Errorf("walk error"))},
			expectErr: "failed to load build: walk error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Reconcile(context.Background(), tt.sources...)
			assert.Nil(t, report)
			assert.EqualError(t, err, tt.expectErr)
		})
	}
}
