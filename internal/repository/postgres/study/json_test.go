package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/ArthurLoboLobo/projeto-estudos/internal/domain/models/study"
)

func TestPlanParam(t *testing.T) {
	got, err := planParam(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = planParam(models.DraftPlan{{OrderIndex: 1, Title: "Limits", Subtopics: []string{"a"}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"order_index":1,"title":"Limits","subtopics":["a"],"is_completed":false}]`, got.(string))
}

func TestHistoryParam_NilIsEmptyArray(t *testing.T) {
	got, err := historyParam(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestDecodePlan(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.DraftPlan
	}{
		{"sql null", "", nil},
		{"json null", "null", nil},
		{"empty plan", "[]", models.DraftPlan{}},
		{"one topic", `[{"order_index":2,"title":"T","subtopics":[],"is_completed":true}]`,
			models.DraftPlan{{OrderIndex: 2, Title: "T", Subtopics: []string{}, IsCompleted: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodePlan([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeHistory(t *testing.T) {
	got, err := decodeHistory(nil)
	require.NoError(t, err)
	assert.Equal(t, []models.DraftPlan{}, got)

	got, err = decodeHistory([]byte(`[[],[{"order_index":1,"title":"A","subtopics":null,"is_completed":false}]]`))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Empty(t, got[0])
	assert.Equal(t, "A", got[1][0].Title)

	_, err = decodeHistory([]byte(`{"not":"a list"}`))
	assert.Error(t, err)
}
