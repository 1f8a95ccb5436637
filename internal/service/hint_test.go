package service

import (
	"testing"

	"vroom/internal/model"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestDescribeEmpty_BudgetTooLow(t *testing.T) {
	resp := &model.RecommendResponse{
		Count: 0,
		Hint: &model.Hint{
			Reason:          model.HintBudgetTooLow,
			Message:         "Budget di bawah harga termurah.",
			CurrentBudget:   300_000_000,
			MinPriceOverall: ptr(320_000_000),
			SuggestedBudget: ptr(350_000_000),
		},
	}

	es := DescribeEmpty(resp)
	assert.False(t, es.Generic)
	assert.Equal(t, model.HintBudgetTooLow, es.Reason)
	assert.Equal(t, "Budget terlalu rendah", es.Title)
	assert.NotEqual(t, genericEmptyTitle, es.Title)
	assert.Equal(t, "Rp 300.000.000", es.CurrentBudget)
	assert.Equal(t, "Rp 320.000.000", es.MinPrice)
	assert.Equal(t, "Rp 350.000.000", es.SuggestedBudget)
	assert.Contains(t, es.Suggestion, "Rp 350.000.000")
	assert.Equal(t, "Budget di bawah harga termurah.", es.BackendMessage)
}

func TestDescribeEmpty_EachKnownReasonHasOwnText(t *testing.T) {
	reasons := []string{
		model.HintBudgetTooLow,
		model.HintBudgetTooLowForNeeds,
		model.HintNoMatchFilters,
		model.HintNoMatchNeeds,
		model.HintNoMatchNeedsButLoose,
		model.HintConstraintsTooStrict,
	}

	seen := map[string]bool{}
	for _, r := range reasons {
		t.Run(r, func(t *testing.T) {
			es := DescribeEmpty(&model.RecommendResponse{Hint: &model.Hint{Reason: r}})
			assert.False(t, es.Generic)
			assert.NotEmpty(t, es.Title)
			assert.False(t, seen[es.Title], "title reused")
			seen[es.Title] = true
		})
	}
}

func TestDescribeEmpty_FallsBackToGeneric(t *testing.T) {
	tests := []struct {
		name string
		resp *model.RecommendResponse
	}{
		{"nil response", nil},
		{"no hint", &model.RecommendResponse{Count: 0}},
		{"unknown reason", &model.RecommendResponse{Hint: &model.Hint{Reason: model.HintUnknown}}},
		{"error reason", &model.RecommendResponse{Hint: &model.Hint{Reason: model.HintError, Message: "boom"}}},
		{"future reason", &model.RecommendResponse{Hint: &model.Hint{Reason: "SOMETHING_NEW"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es := DescribeEmpty(tt.resp)
			assert.True(t, es.Generic)
			assert.Equal(t, genericEmptyTitle, es.Title)
		})
	}
}

func TestDescribeEmpty_NeedsDiag(t *testing.T) {
	es := DescribeEmpty(&model.RecommendResponse{Hint: &model.Hint{
		Reason: model.HintNoMatchNeeds,
		NeedsDiag: []model.NeedDiag{
			{Need: "offroad", Label: "Offroad", Total: 4, TotalLoose: 9, UnderCap: 0, MinPriceAll: ptr(550_000_000)},
			{Need: "niaga", Total: 2},
		},
	}})

	assert.Len(t, es.Needs, 2)
	assert.Equal(t, "Offroad", es.Needs[0].Label)
	assert.Equal(t, "Rp 550.000.000", es.Needs[0].MinPrice)
	assert.Equal(t, "niaga", es.Needs[1].Label)
	assert.Empty(t, es.Needs[1].MinPrice)
}
