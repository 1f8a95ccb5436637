package service

import (
	"encoding/json"
	"testing"

	"vroom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultForm() *Form {
	return NewForm(FormOptions{
		BudgetDefault: 300_000_000,
		Fuels:         DefaultFuelOptions(),
		Needs:         DefaultNeeds,
	})
}

func TestNewForm_Defaults(t *testing.T) {
	f := defaultForm()

	assert.Equal(t, int64(300_000_000), f.Budget)
	assert.Empty(t, f.Needs)
	assert.Equal(t, FuelOrder, f.Fuels)
	assert.True(t, f.AllFuelsSelected())
	assert.Empty(t, f.Transmission)
	assert.Empty(t, f.Brand)
}

func TestForm_ToggleNeed(t *testing.T) {
	tests := []struct {
		name       string
		start      []string
		toggle     string
		wantOK     bool
		wantReason string
		wantNeeds  []string
	}{
		{
			name:      "select",
			start:     nil,
			toggle:    "keluarga",
			wantOK:    true,
			wantNeeds: []string{"keluarga"},
		},
		{
			name:      "alias is canonicalised",
			start:     nil,
			toggle:    "family",
			wantOK:    true,
			wantNeeds: []string{"keluarga"},
		},
		{
			name:      "deselect",
			start:     []string{"keluarga", "fun"},
			toggle:    "keluarga",
			wantOK:    true,
			wantNeeds: []string{"fun"},
		},
		{
			name:       "fun then offroad conflicts",
			start:      []string{"fun"},
			toggle:     "offroad",
			wantReason: "Tidak bisa dipadukan dengan Fun to Drive",
			wantNeeds:  []string{"fun"},
		},
		{
			name:       "conflict checked in reverse direction",
			start:      []string{"niaga"},
			toggle:     "fun",
			wantReason: "Tidak bisa dipadukan dengan Niaga",
			wantNeeds:  []string{"niaga"},
		},
		{
			name:       "long trip vs city",
			start:      []string{"perkotaan"},
			toggle:     "long trip",
			wantReason: "Tidak bisa dipadukan dengan Perkotaan",
			wantNeeds:  []string{"perkotaan"},
		},
		{
			name:       "max three",
			start:      []string{"keluarga", "perkotaan", "niaga"},
			toggle:     "offroad",
			wantReason: ReasonMaxNeeds,
			wantNeeds:  []string{"keluarga", "perkotaan", "niaga"},
		},
		{
			name:      "deselect allowed at max",
			start:     []string{"keluarga", "perkotaan", "niaga"},
			toggle:    "niaga",
			wantOK:    true,
			wantNeeds: []string{"keluarga", "perkotaan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultForm()
			for _, n := range tt.start {
				f.Needs = append(f.Needs, n)
			}

			ok, reason := f.ToggleNeed(tt.toggle)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantReason, reason)
			assert.Equal(t, tt.wantNeeds, f.Needs)
		})
	}
}

func TestForm_ToggleNeedRejectsNeedsNotOffered(t *testing.T) {
	f := defaultForm()

	ok, reason := f.ToggleNeed("bogus_need")
	assert.False(t, ok)
	assert.Equal(t, ReasonUnknownNeed, reason)
	assert.Empty(t, f.Needs)

	narrow := NewForm(FormOptions{Needs: []model.Need{{Key: "keluarga", Label: "Keluarga"}}})
	ok, reason = narrow.ToggleNeed("offroad")
	assert.False(t, ok, "known need outside the offered list")
	assert.Equal(t, ReasonUnknownNeed, reason)

	ok, _ = narrow.ToggleNeed("family")
	assert.True(t, ok)
	assert.Equal(t, []string{"keluarga"}, narrow.Needs)
}

func TestForm_PrefillSkipsNeedsNotOffered(t *testing.T) {
	f := defaultForm()
	f.Prefill(&model.ParsedConstraints{Needs: []string{"hemat", "keluarga"}})
	assert.Equal(t, []string{"keluarga"}, f.Needs)
}

func TestForm_ValidateBlocksAndClearsErrors(t *testing.T) {
	f := defaultForm()
	f.ToggleAllFuels()
	require.Empty(t, f.Fuels)

	assert.False(t, f.Validate())
	assert.Equal(t, ErrNeedsRequired, f.NeedsError)
	assert.Equal(t, ErrFuelsRequired, f.FuelsError)

	f.ToggleNeed("keluarga")
	assert.Empty(t, f.NeedsError, "changing needs clears its error")
	assert.Equal(t, ErrFuelsRequired, f.FuelsError, "fuel error is independent")

	f.ToggleFuel("g")
	assert.Empty(t, f.FuelsError)
	assert.True(t, f.Validate())

	// re-triggerable
	f.ToggleNeed("keluarga")
	assert.False(t, f.Validate())
	assert.Equal(t, ErrNeedsRequired, f.NeedsError)
	assert.Empty(t, f.FuelsError)
}

func TestForm_ToggleAllFuelsIsEquivalentToEachFuel(t *testing.T) {
	a := defaultForm()
	b := defaultForm()

	a.ToggleAllFuels()
	for _, c := range FuelOrder {
		b.ToggleFuel(c)
	}
	assert.Equal(t, a.Fuels, b.Fuels)
	assert.Empty(t, a.Fuels)

	a.ToggleAllFuels()
	for _, c := range FuelOrder {
		b.ToggleFuel(c)
	}
	assert.Equal(t, a.Fuels, b.Fuels)
	assert.True(t, a.AllFuelsSelected())
}

func TestForm_ToggleFuelKeepsCanonicalOrder(t *testing.T) {
	f := defaultForm()
	f.ToggleAllFuels()
	f.ToggleFuel("e")
	f.ToggleFuel("g")
	f.ToggleFuel("H")

	assert.Equal(t, []model.FuelCode{"g", "h", "e"}, f.Fuels)
	assert.False(t, f.ToggleFuel("x"), "unknown code ignored")
}

func TestForm_CriteriaOmitsFuelsWhenAllSelected(t *testing.T) {
	f := defaultForm()
	f.ToggleNeed("keluarga")

	body, err := json.Marshal(f.Criteria())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	filters := decoded["filters"].(map[string]any)
	assert.NotContains(t, filters, "fuels")
	assert.NotContains(t, filters, "trans_choice")
	assert.NotContains(t, filters, "brand")
}

func TestForm_CriteriaEndToEndExample(t *testing.T) {
	f := defaultForm()
	f.SetBudget(300_000_000)
	f.ToggleNeed("keluarga")
	f.ToggleAllFuels()
	f.ToggleFuel("g")
	f.ToggleFuel("h")
	require.True(t, f.Validate())

	c := f.Criteria()
	assert.Equal(t, int64(300_000_000), c.Budget)
	assert.Equal(t, []string{"keluarga"}, c.Needs)
	assert.Equal(t, []model.FuelCode{"g", "h"}, c.Filters.Fuels)
	assert.Empty(t, c.Filters.TransChoice)
}

func TestForm_SetTransmissionAndBrand(t *testing.T) {
	f := defaultForm()

	f.SetTransmission("matic")
	assert.Equal(t, model.TransMatic, f.Transmission)
	f.SetTransmission("Manual")
	assert.Equal(t, model.TransManual, f.Transmission)
	f.SetTransmission("cvt?")
	assert.Empty(t, f.Transmission)

	f.SetBrand("  Toyota ")
	assert.Equal(t, "Toyota", f.Brand)
}

func TestForm_SetBudget(t *testing.T) {
	tests := []struct {
		name       string
		value      int64
		wantBudget int64
		wantSlider int64
	}{
		{"below minimum", 1, BudgetMin, BudgetMin},
		{"inside slider range", 300_000_000, 300_000_000, 300_000_000},
		{"rounded down to step", 320_000_000, 300_000_000, 300_000_000},
		{"rounded up to step", 330_000_000, 350_000_000, 350_000_000},
		{"above slider kept", 5_000_000_000, 5_000_000_000, BudgetMax},
		{"above input ceiling", 20_000_000_000, BudgetInputMax, BudgetMax},
		{"negative", -5, BudgetMin, BudgetMin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultForm()
			f.SetBudget(tt.value)
			assert.Equal(t, tt.wantBudget, f.Budget)
			assert.Equal(t, tt.wantSlider, f.SliderBudget())
		})
	}
}

func TestForm_LargeBudgetReachesCriteria(t *testing.T) {
	f := defaultForm()
	f.SetBudget(5_000_000_000)
	f.ToggleNeed("keluarga")
	require.True(t, f.Validate())

	assert.Equal(t, int64(5_000_000_000), f.Criteria().Budget)

	f.Prefill(&model.ParsedConstraints{Budget: 7_500_000_000})
	assert.Equal(t, int64(7_500_000_000), f.Criteria().Budget)
}

func TestForm_ApplyOptions(t *testing.T) {
	f := defaultForm()
	narrow := FormOptions{
		BudgetDefault: BudgetMin,
		Fuels:         []model.MetaFuel{{Code: "g", Label: "Bensin"}, {Code: "e", Label: "BEV"}},
	}

	f.ApplyOptions(narrow)
	assert.Equal(t, []model.FuelCode{"g", "e"}, f.Fuels, "untouched selection follows options")

	f.ToggleFuel("e")
	f.ApplyOptions(FormOptions{Fuels: DefaultFuelOptions()})
	assert.Equal(t, []model.FuelCode{"g"}, f.Fuels, "touched selection is kept")
}

func TestForm_Prefill(t *testing.T) {
	f := defaultForm()
	f.Prefill(&model.ParsedConstraints{
		Budget: 450_000_000,
		Needs:  []string{"family", "sporty", "offroad"},
		Filters: model.Filters{
			Fuels:       []model.FuelCode{"h", "e"},
			TransChoice: "Matic",
		},
	})

	assert.Equal(t, int64(450_000_000), f.Budget)
	assert.Equal(t, []string{"keluarga", "fun"}, f.Needs, "offroad conflicts with fun and is skipped")
	assert.Equal(t, []model.FuelCode{"h", "e"}, f.Fuels)
	assert.Equal(t, model.TransMatic, f.Transmission)
}

func TestForm_Reset(t *testing.T) {
	f := defaultForm()
	f.ToggleNeed("keluarga")
	f.ToggleFuel("g")
	f.SetBrand("Honda")
	f.Validate()

	f.Reset(FormOptions{BudgetDefault: 500_000_000})
	assert.Equal(t, int64(500_000_000), f.Budget)
	assert.Empty(t, f.Needs)
	assert.True(t, f.AllFuelsSelected())
	assert.Empty(t, f.Brand)
	assert.Empty(t, f.NeedsError)
}
