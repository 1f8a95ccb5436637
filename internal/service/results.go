package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"vroom/internal/model"
	"vroom/internal/utils"
)

// Display constants for match percentages
const (
	DefaultFloorPct    = 75.0
	DefaultCeilPct     = 99.0
	DefaultTightSpread = 0.01
	SingleScorePct     = 98.0
	HighMatchPct       = 90.0
	DefaultCarImage    = "/static/img/car-default.svg"
)

// Normalizer maps raw fit scores onto a display percentage range
type Normalizer struct {
	floor       float64
	ceil        float64
	tightSpread float64
}

// NewNormalizer creates a normalizer for the [floor, ceil] display range
func NewNormalizer(floor, ceil, tightSpread float64) *Normalizer {
	if floor >= ceil {
		floor, ceil = DefaultFloorPct, DefaultCeilPct
	}
	if tightSpread <= 0 {
		tightSpread = DefaultTightSpread
	}
	return &Normalizer{floor: floor, ceil: ceil, tightSpread: tightSpread}
}

// MatchPercentages computes one display percentage per score, in input order.
//
// The p10..p90 window of the score set is mapped linearly into [floor, ceil]
// with values outside the window clamped. When p90-p10 is below the tight
// spread threshold the scores are ranked instead: each distinct score gets a
// slot spread evenly across the range, so equal scores tie and everything
// else strictly increases with rank. A single distinct score maps to 98.
func (n *Normalizer) MatchPercentages(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	clean := make([]float64, len(scores))
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		clean[i] = s
	}

	sorted := append([]float64(nil), clean...)
	sort.Float64s(sorted)
	p10 := percentile(sorted, 0.10)
	p90 := percentile(sorted, 0.90)

	if p90-p10 < n.tightSpread {
		return n.rankBased(clean, sorted, out)
	}

	span := p90 - p10
	for i, s := range clean {
		rel := (s - p10) / span
		if rel < 0 {
			rel = 0
		} else if rel > 1 {
			rel = 1
		}
		out[i] = n.floor + rel*(n.ceil-n.floor)
	}
	return out
}

func (n *Normalizer) rankBased(clean, sorted, out []float64) []float64 {
	distinct := sorted[:0:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			distinct = append(distinct, s)
		}
	}

	if len(distinct) == 1 {
		for i := range out {
			out[i] = SingleScorePct
		}
		return out
	}

	step := (n.ceil - n.floor) / float64(len(distinct)-1)
	for i, s := range clean {
		rank := sort.SearchFloat64s(distinct, s)
		out[i] = n.floor + float64(rank)*step
	}
	return out
}

// percentile uses linear interpolation between closest ranks over sorted values
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Card is a render-ready result item
type Card struct {
	Rank       int                 `json:"rank"`
	Item       model.RecommendItem `json:"item"`
	Title      string              `json:"title"`
	Price      string              `json:"price"`
	PriceShort string              `json:"price_short"`
	FuelCode   string              `json:"fuel_code"`
	FuelLabel  string              `json:"fuel_label"`
	Trans      string              `json:"trans"`
	Seats      string              `json:"seats"`
	Segment    string              `json:"segment,omitempty"`
	Image      string              `json:"image"`
	Reason     string              `json:"reason,omitempty"`
	MatchPct   int                 `json:"match_pct"`
	HighMatch  bool                `json:"high_match"`
}

// BuildCards turns a response into cards. Items without brand, model or price
// are skipped; percentages are computed over the kept items only.
func (n *Normalizer) BuildCards(resp *model.RecommendResponse) []Card {
	if resp == nil {
		return nil
	}

	kept := make([]model.RecommendItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		if strings.TrimSpace(it.Brand) == "" || strings.TrimSpace(it.Model) == "" || it.Price <= 0 {
			continue
		}
		kept = append(kept, it)
	}

	scores := make([]float64, len(kept))
	for i, it := range kept {
		scores[i] = it.FitScore
	}
	pcts := n.MatchPercentages(scores)

	cards := make([]Card, 0, len(kept))
	for i, it := range kept {
		code := strings.ToLower(strings.TrimSpace(it.FuelCode))
		if code == "" {
			code = utils.FuelCodeLoose(it.Fuel)
		}

		trans := it.Trans
		if trans == "" {
			trans = "-"
		}
		seats := "-"
		if it.Seats != nil && *it.Seats > 0 && !math.IsInf(*it.Seats, 0) {
			seats = fmt.Sprintf("%d kursi", int(math.Round(*it.Seats)))
		}
		img := it.Picture()
		if img == "" {
			img = DefaultCarImage
		}

		pct := int(math.Round(pcts[i]))
		cards = append(cards, Card{
			Rank:       i + 1,
			Item:       it,
			Title:      it.Title(),
			Price:      utils.FormatIDR(it.Price),
			PriceShort: utils.FormatIDRShort(it.Price),
			FuelCode:   code,
			FuelLabel:  utils.FuelLabel(code),
			Trans:      trans,
			Seats:      seats,
			Segment:    it.Segment,
			Image:      img,
			Reason:     it.Why(),
			MatchPct:   pct,
			HighMatch:  float64(pct) >= HighMatchPct,
		})
	}
	return cards
}
