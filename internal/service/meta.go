package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"vroom/internal/model"
	"vroom/internal/utils"

	"github.com/rs/zerolog"
)

// Budget bounds in rupiah. The slider stops at BudgetMax; typed budgets may
// go up to BudgetInputMax.
const (
	BudgetMin      int64 = 150_000_000
	BudgetMax      int64 = 2_000_000_000
	BudgetInputMax int64 = 10_000_000_000
	BudgetStep     int64 = 50_000_000
)

// FuelOrder is the canonical fuel set in display order
var FuelOrder = []model.FuelCode{
	model.FuelGasoline,
	model.FuelDiesel,
	model.FuelHybrid,
	model.FuelPHEV,
	model.FuelBEV,
}

// DefaultNeeds is shown when the backend has not answered /meta yet
var DefaultNeeds = []model.Need{
	{Key: "perkotaan", Label: "Perkotaan", Image: "/static/img/kebutuhan/perkotaan.svg"},
	{Key: "keluarga", Label: "Keluarga", Image: "/static/img/kebutuhan/keluarga.svg"},
	{Key: "fun", Label: "Fun to Drive", Image: "/static/img/kebutuhan/fun.svg"},
	{Key: "offroad", Label: "Offroad", Image: "/static/img/kebutuhan/offroad.svg"},
	{Key: "perjalanan_jauh", Label: "Perjalanan Jauh", Image: "/static/img/kebutuhan/perjalanan_jauh.svg"},
	{Key: "niaga", Label: "Niaga", Image: "/static/img/kebutuhan/niaga.svg"},
}

// DefaultFuelOptions is used when /meta is unavailable or lists nothing usable
func DefaultFuelOptions() []model.MetaFuel {
	out := make([]model.MetaFuel, 0, len(FuelOrder))
	for _, code := range FuelOrder {
		out = append(out, model.MetaFuel{Code: code, Label: utils.FuelLabel(string(code))})
	}
	return out
}

// MetaService holds the latest /meta answer. Each successful fetch replaces
// the previous value; failures keep serving whatever was there before.
type MetaService struct {
	src    MetaSource
	logger zerolog.Logger

	mu        sync.RWMutex
	meta      *model.MetaResponse
	fetchedAt time.Time
}

// NewMetaService creates a metadata holder backed by src
func NewMetaService(src MetaSource, logger zerolog.Logger) *MetaService {
	return &MetaService{
		src:    src,
		logger: logger.With().Str("component", "meta").Logger(),
	}
}

// Refetch loads /meta again. Errors are returned for callers that care, but
// the held value is left untouched so pages keep rendering.
func (s *MetaService) Refetch(ctx context.Context) error {
	meta, err := s.src.GetMeta(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("meta fetch failed, keeping previous metadata")
		return err
	}

	s.mu.Lock()
	s.meta = meta
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug().
		Int("brands", len(meta.Brands)).
		Int("fuels", len(meta.Fuels)).
		Int("needs", len(meta.Needs)).
		Msg("meta refreshed")
	return nil
}

// Current returns the held metadata, or nil when no fetch has succeeded yet
func (s *MetaService) Current() *model.MetaResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// FetchedAt is the time of the last successful fetch
func (s *MetaService) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// DataReady reports dataset readiness; ok is false until meta has been fetched
func (s *MetaService) DataReady() (model.DataReady, bool) {
	meta := s.Current()
	if meta == nil {
		return model.DataReady{}, false
	}
	return meta.DataReady, true
}

// Brands returns the sorted brand list
func (s *MetaService) Brands() []string {
	meta := s.Current()
	if meta == nil {
		return nil
	}
	out := append([]string(nil), meta.Brands...)
	sort.Strings(out)
	return out
}

// Needs returns the selectable needs with canonical keys
func (s *MetaService) Needs() []model.Need {
	meta := s.Current()
	if meta == nil || len(meta.Needs) == 0 {
		return append([]model.Need(nil), DefaultNeeds...)
	}

	out := make([]model.Need, 0, len(meta.Needs))
	seen := make(map[string]bool, len(meta.Needs))
	for _, n := range meta.Needs {
		key := utils.CanonNeed(n.Key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		label := n.Label
		if label == "" {
			label = key
		}
		out = append(out, model.Need{Key: key, Label: label, Image: n.Image})
	}
	return out
}

// FuelOptions returns the canonical fuel options advertised by the backend
func (s *MetaService) FuelOptions() []model.MetaFuel {
	meta := s.Current()
	if meta == nil {
		return DefaultFuelOptions()
	}
	return NormalizeFuelOptions(meta.Fuels)
}

// BudgetDefault is the backend-suggested budget when finite, else the slider minimum
func (s *MetaService) BudgetDefault() int64 {
	meta := s.Current()
	if meta == nil || meta.BudgetDefault == nil {
		return BudgetMin
	}
	v := *meta.BudgetDefault
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return BudgetMin
	}
	return ClampBudget(int64(math.Round(v)))
}

// NormalizeFuelOptions maps raw meta fuels onto the canonical set: codes are
// resolved from labels when missing, unknown and duplicate codes are dropped,
// and the result follows FuelOrder.
func NormalizeFuelOptions(raw []model.MetaFuel) []model.MetaFuel {
	if len(raw) == 0 {
		return DefaultFuelOptions()
	}

	byCode := make(map[model.FuelCode]model.MetaFuel, len(raw))
	for _, f := range raw {
		code := model.FuelCode(strings.ToLower(strings.TrimSpace(string(f.Code))))
		if !isCanonicalFuel(code) {
			code = model.FuelCode(utils.FuelCodeFromLabel(f.Label))
		}
		if !isCanonicalFuel(code) {
			continue
		}
		if _, dup := byCode[code]; dup {
			continue
		}
		label := strings.TrimSpace(f.Label)
		if label == "" || f.Code == "" {
			label = utils.FuelLabel(string(code))
		}
		byCode[code] = model.MetaFuel{Code: code, Label: label}
	}

	out := make([]model.MetaFuel, 0, len(byCode))
	for _, code := range FuelOrder {
		if f, ok := byCode[code]; ok {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return DefaultFuelOptions()
	}
	return out
}

func isCanonicalFuel(code model.FuelCode) bool {
	for _, c := range FuelOrder {
		if c == code {
			return true
		}
	}
	return false
}

// ClampBudget keeps a budget inside the slider range
func ClampBudget(v int64) int64 {
	if v < BudgetMin {
		return BudgetMin
	}
	if v > BudgetMax {
		return BudgetMax
	}
	return v
}

// NormalizeBudget rounds a typed budget to the nearest step and keeps it
// within [BudgetMin, BudgetInputMax]
func NormalizeBudget(v int64) int64 {
	if v > BudgetInputMax {
		return BudgetInputMax
	}
	v = (v + BudgetStep/2) / BudgetStep * BudgetStep
	if v < BudgetMin {
		return BudgetMin
	}
	if v > BudgetInputMax {
		return BudgetInputMax
	}
	return v
}
