package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"vroom/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaService_DefaultsBeforeFirstFetch(t *testing.T) {
	svc := NewMetaService(&fakeMeta{}, zerolog.Nop())

	assert.Nil(t, svc.Current())
	assert.Equal(t, DefaultFuelOptions(), svc.FuelOptions())
	assert.Equal(t, DefaultNeeds, svc.Needs())
	assert.Equal(t, BudgetMin, svc.BudgetDefault())
	assert.Nil(t, svc.Brands())

	_, ok := svc.DataReady()
	assert.False(t, ok)
}

func TestMetaService_RefetchReplacesAndKeepsStaleOnError(t *testing.T) {
	src := &fakeMeta{meta: &model.MetaResponse{
		Brands:    []string{"Toyota", "BYD", "Honda"},
		DataReady: model.DataReady{Specs: true},
	}}
	svc := NewMetaService(src, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.Refetch(ctx))
	assert.Equal(t, []string{"BYD", "Honda", "Toyota"}, svc.Brands())
	ready, ok := svc.DataReady()
	require.True(t, ok)
	assert.True(t, ready.Specs)
	first := svc.FetchedAt()
	assert.False(t, first.IsZero())

	src.meta = &model.MetaResponse{Brands: []string{"Suzuki"}}
	require.NoError(t, svc.Refetch(ctx))
	assert.Equal(t, []string{"Suzuki"}, svc.Brands(), "replaced, not merged")

	src.err = errors.New("backend down")
	assert.Error(t, svc.Refetch(ctx))
	assert.Equal(t, []string{"Suzuki"}, svc.Brands(), "stale value kept")
}

func TestMetaService_Needs(t *testing.T) {
	src := &fakeMeta{meta: &model.MetaResponse{Needs: []model.Need{
		{Key: "Family", Label: "Keluarga"},
		{Key: "keluarga", Label: "Duplikat"},
		{Key: "city"},
		{Key: ""},
	}}}
	svc := NewMetaService(src, zerolog.Nop())
	require.NoError(t, svc.Refetch(context.Background()))

	assert.Equal(t, []model.Need{
		{Key: "keluarga", Label: "Keluarga"},
		{Key: "perkotaan", Label: "perkotaan"},
	}, svc.Needs())
}

func TestMetaService_BudgetDefault(t *testing.T) {
	tests := []struct {
		name  string
		value *float64
		want  int64
	}{
		{"absent", nil, BudgetMin},
		{"in range", ptr(325_000_000), 325_000_000},
		{"below range", ptr(1), BudgetMin},
		{"above range", ptr(9e9), BudgetMax},
		{"nan", ptr(math.NaN()), BudgetMin},
		{"inf", ptr(math.Inf(1)), BudgetMin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMetaService(&fakeMeta{meta: &model.MetaResponse{BudgetDefault: tt.value}}, zerolog.Nop())
			require.NoError(t, svc.Refetch(context.Background()))
			assert.Equal(t, tt.want, svc.BudgetDefault())
		})
	}
}

func TestNormalizeFuelOptions(t *testing.T) {
	tests := []struct {
		name string
		raw  []model.MetaFuel
		want []model.FuelCode
	}{
		{
			name: "empty falls back to defaults",
			raw:  nil,
			want: FuelOrder,
		},
		{
			name: "label strings resolved and ordered",
			raw:  []model.MetaFuel{{Label: "Listrik"}, {Label: "Bensin"}, {Label: "Hybrid"}},
			want: []model.FuelCode{"g", "h", "e"},
		},
		{
			name: "duplicates and unknown codes dropped",
			raw:  []model.MetaFuel{{Code: "G", Label: "Bensin"}, {Code: "g", Label: "Gasoline"}, {Code: "x", Label: "CNG"}, {Code: "d", Label: "Diesel"}},
			want: []model.FuelCode{"g", "d"},
		},
		{
			name: "nothing canonical falls back to defaults",
			raw:  []model.MetaFuel{{Code: "x", Label: "CNG"}},
			want: FuelOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeFuelOptions(tt.raw)
			codes := make([]model.FuelCode, 0, len(got))
			for _, f := range got {
				codes = append(codes, f.Code)
				assert.NotEmpty(t, f.Label)
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}
