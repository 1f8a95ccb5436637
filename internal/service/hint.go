package service

import (
	"fmt"

	"vroom/internal/model"
	"vroom/internal/utils"
)

// EmptyState is the diagnostic shown when a result set has no items. It is
// chosen purely from the backend's hint reason; nothing is diagnosed here.
type EmptyState struct {
	Reason          string         `json:"reason,omitempty"`
	Title           string         `json:"title"`
	Body            string         `json:"body"`
	Suggestion      string         `json:"suggestion,omitempty"`
	BackendMessage  string         `json:"backend_message,omitempty"`
	CurrentBudget   string         `json:"current_budget,omitempty"`
	MinPrice        string         `json:"min_price,omitempty"`
	SuggestedBudget string         `json:"suggested_budget,omitempty"`
	Needs           []NeedDiagView `json:"needs,omitempty"`
	Generic         bool           `json:"generic"`
}

// NeedDiagView is one row of the per-need breakdown
type NeedDiagView struct {
	Label      string `json:"label"`
	Total      int    `json:"total"`
	TotalLoose int    `json:"total_loose"`
	UnderCap   int    `json:"under_cap"`
	MinPrice   string `json:"min_price,omitempty"`
}

const (
	genericEmptyTitle = "Tidak ada hasil yang cocok"
	genericEmptyBody  = "Coba ubah kriteria pencarianmu lalu cari lagi."
)

type hintText struct {
	title      string
	body       string
	suggestion string
}

var hintTexts = map[string]hintText{
	model.HintBudgetTooLow: {
		title:      "Budget terlalu rendah",
		body:       "Belum ada mobil yang harganya masuk ke budget kamu.",
		suggestion: "Naikkan budget agar pilihan mobil muncul.",
	},
	model.HintBudgetTooLowForNeeds: {
		title:      "Budget belum cukup untuk kebutuhan ini",
		body:       "Ada mobil yang cocok dengan kebutuhanmu, tapi harganya di atas budget.",
		suggestion: "Naikkan budget atau kurangi kebutuhan yang dipilih.",
	},
	model.HintNoMatchFilters: {
		title:      "Filter terlalu sempit",
		body:       "Tidak ada mobil yang cocok dengan kombinasi transmisi, merek, dan bahan bakar yang dipilih.",
		suggestion: "Longgarkan filter, misalnya pilih semua bahan bakar atau kosongkan merek.",
	},
	model.HintNoMatchNeeds: {
		title:      "Kebutuhan tidak bisa dipenuhi",
		body:       "Tidak ada mobil dalam data yang memenuhi semua kebutuhan yang dipilih.",
		suggestion: "Kurangi atau ganti kebutuhan yang dipilih.",
	},
	model.HintNoMatchNeedsButLoose: {
		title:      "Hampir cocok",
		body:       "Tidak ada yang memenuhi kebutuhan secara ketat, tapi ada kandidat bila kriterianya dilonggarkan.",
		suggestion: "Kurangi satu kebutuhan untuk melihat kandidat tersebut.",
	},
	model.HintConstraintsTooStrict: {
		title:      "Kriteria terlalu ketat",
		body:       "Gabungan budget, kebutuhan, dan filter tidak menyisakan satu mobil pun.",
		suggestion: "Longgarkan salah satu kriteria lalu coba lagi.",
	},
}

// DescribeEmpty builds the empty-state diagnostic for a response. Unknown or
// missing reasons fall back to the generic text.
func DescribeEmpty(resp *model.RecommendResponse) EmptyState {
	if resp == nil || resp.Hint == nil {
		return genericEmpty("")
	}
	h := resp.Hint

	text, ok := hintTexts[h.Reason]
	if !ok {
		es := genericEmpty(h.Reason)
		es.BackendMessage = h.Message
		return es
	}

	es := EmptyState{
		Reason:         h.Reason,
		Title:          text.title,
		Body:           text.body,
		Suggestion:     text.suggestion,
		BackendMessage: h.Message,
	}
	if h.CurrentBudget > 0 {
		es.CurrentBudget = utils.FormatIDR(h.CurrentBudget)
	}
	if min := firstPositive(h.MinPriceFiltered, h.MinPriceOverall); min != nil {
		es.MinPrice = utils.FormatIDR(*min)
	}
	if h.SuggestedBudget != nil && *h.SuggestedBudget > 0 {
		es.SuggestedBudget = utils.FormatIDR(*h.SuggestedBudget)
		es.Suggestion = fmt.Sprintf("Coba naikkan budget ke sekitar %s.", es.SuggestedBudget)
	}
	for _, d := range h.NeedsDiag {
		label := d.Label
		if label == "" {
			label = d.Need
		}
		v := NeedDiagView{Label: label, Total: d.Total, TotalLoose: d.TotalLoose, UnderCap: d.UnderCap}
		if d.MinPriceAll != nil && *d.MinPriceAll > 0 {
			v.MinPrice = utils.FormatIDR(*d.MinPriceAll)
		}
		es.Needs = append(es.Needs, v)
	}
	return es
}

func genericEmpty(reason string) EmptyState {
	return EmptyState{
		Reason:  reason,
		Title:   genericEmptyTitle,
		Body:    genericEmptyBody,
		Generic: true,
	}
}

func firstPositive(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil && *v > 0 {
			return v
		}
	}
	return nil
}
