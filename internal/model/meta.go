package model

import (
	"encoding/json"
	"fmt"
)

// Need is a selectable usage need (e.g. keluarga, perkotaan)
type Need struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Image string `json:"image,omitempty"`
}

// MetaFuel is one fuel option. The backend may send either {code,label}
// objects or bare label strings; both decode into this type.
type MetaFuel struct {
	Code  FuelCode `json:"code"`
	Label string   `json:"label"`
}

// UnmarshalJSON implements json.Unmarshaler
func (f *MetaFuel) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		f.Code = ""
		f.Label = label
		return nil
	}

	type plain MetaFuel
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("fuel must be a string or {code,label} object: %w", err)
	}
	*f = MetaFuel(p)
	return nil
}

// DataReady reports which backend datasets are loaded
type DataReady struct {
	Specs     bool `json:"specs"`
	Retail    bool `json:"retail"`
	Wholesale bool `json:"wholesale"`
}

// MetaResponse is the body of GET /meta
type MetaResponse struct {
	Brands        []string   `json:"brands"`
	Fuels         []MetaFuel `json:"fuels"`
	Needs         []Need     `json:"needs"`
	DataReady     DataReady  `json:"data_ready"`
	BudgetDefault *float64   `json:"budgetDefault,omitempty"`
}
