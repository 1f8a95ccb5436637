package model

// FuelCode is the single-letter fuel identifier shared with the backend
type FuelCode string

const (
	FuelGasoline FuelCode = "g"
	FuelDiesel   FuelCode = "d"
	FuelHybrid   FuelCode = "h"
	FuelPHEV     FuelCode = "p"
	FuelBEV      FuelCode = "e"
	FuelOther    FuelCode = "o"
)

// Transmission choices accepted by the backend
const (
	TransMatic  = "Matic"
	TransManual = "Manual"
)

// Filters narrows a recommendation request. Empty fields are omitted on the wire.
type Filters struct {
	TransChoice string     `json:"trans_choice,omitempty"`
	Brand       string     `json:"brand,omitempty"`
	Fuels       []FuelCode `json:"fuels,omitempty"`
}

// Criteria is the user's submitted search intent
type Criteria struct {
	Budget  int64    `json:"budget"`
	Needs   []string `json:"needs"`
	Filters Filters  `json:"filters"`
}

// RecommendRequest is the body of POST /recommendations
type RecommendRequest struct {
	Budget  int64    `json:"budget"`
	TopN    int      `json:"topn"`
	Needs   []string `json:"needs"`
	Filters Filters  `json:"filters"`
}

// RecommendItem is one ranked vehicle returned by the backend
type RecommendItem struct {
	Brand       string     `json:"brand"`
	Model       string     `json:"model"`
	Price       float64    `json:"price"`
	FitScore    float64    `json:"fit_score"`
	Fuel        string     `json:"fuel,omitempty"`
	FuelCode    string     `json:"fuel_code,omitempty"`
	Trans       string     `json:"trans,omitempty"`
	Seats       *float64   `json:"seats,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Image       string     `json:"image,omitempty"`
	Segment     string     `json:"segmentasi,omitempty"`
	CCKwh       FlexString `json:"cc_kwh,omitempty"`
	Reason      string     `json:"alasan,omitempty"`
	ReasonAlt   string     `json:"reason,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
}

// Title is "Brand Model"
func (i RecommendItem) Title() string {
	if i.Brand == "" {
		return i.Model
	}
	if i.Model == "" {
		return i.Brand
	}
	return i.Brand + " " + i.Model
}

// Picture returns the first non-empty image reference
func (i RecommendItem) Picture() string {
	if i.ImageURL != "" {
		return i.ImageURL
	}
	return i.Image
}

// Why returns the backend's explanation for the item, whichever field carried it
func (i RecommendItem) Why() string {
	switch {
	case i.Reason != "":
		return i.Reason
	case i.ReasonAlt != "":
		return i.ReasonAlt
	default:
		return i.Explanation
	}
}

// RecommendResponse is replaced wholesale on every successful submission
type RecommendResponse struct {
	Count   int             `json:"count"`
	Items   []RecommendItem `json:"items"`
	Hint    *Hint           `json:"hint,omitempty"`
	Budget  float64         `json:"budget,omitempty"`
	Needs   []string        `json:"needs,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Empty-result reasons reported in Hint.Reason
const (
	HintBudgetTooLow         = "BUDGET_TOO_LOW"
	HintBudgetTooLowForNeeds = "BUDGET_TOO_LOW_FOR_NEEDS"
	HintNoMatchFilters       = "NO_MATCH_FILTERS"
	HintNoMatchNeeds         = "NO_MATCH_NEEDS"
	HintNoMatchNeedsButLoose = "NO_MATCH_NEEDS_BUT_LOOSE"
	HintConstraintsTooStrict = "CONSTRAINTS_TOO_STRICT"
	HintUnknown              = "UNKNOWN"
	HintError                = "ERROR"
)

// Hint explains why a result set came back empty
type Hint struct {
	Reason           string         `json:"reason"`
	Message          string         `json:"message,omitempty"`
	CurrentBudget    float64        `json:"current_budget,omitempty"`
	MinPriceOverall  *float64       `json:"min_price_overall,omitempty"`
	MinPriceFiltered *float64       `json:"min_price_filtered,omitempty"`
	MaxPriceAllowed  *float64       `json:"max_price_allowed,omitempty"`
	SuggestedBudget  *float64       `json:"suggested_budget,omitempty"`
	FiltersSummary   map[string]any `json:"filters_summary,omitempty"`
	NeedsDiag        []NeedDiag     `json:"needs_diag,omitempty"`
}

// NeedDiag is the backend's per-need availability breakdown
type NeedDiag struct {
	Need        string   `json:"need"`
	Label       string   `json:"label,omitempty"`
	Total       int      `json:"total"`
	TotalLoose  int      `json:"total_loose"`
	UnderCap    int      `json:"under_cap"`
	MinPriceAll *float64 `json:"min_price_all,omitempty"`
}
