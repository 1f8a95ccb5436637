package service

import (
	"strings"

	"vroom/internal/model"
	"vroom/internal/utils"
)

// MaxNeeds is the most needs a buyer may combine
const MaxNeeds = 3

// Inline form messages
const (
	ReasonMaxNeeds     = "Maksimal 3 kebutuhan"
	ReasonUnknownNeed  = "Kebutuhan tidak tersedia"
	reasonConflictWith = "Tidak bisa dipadukan dengan "
	ErrNeedsRequired   = "Pilih minimal 1 kebutuhan."
	ErrFuelsRequired   = "Pilih minimal 1 jenis bahan bakar."
)

// needExclusions lists needs that cannot be combined. Checked in both directions.
var needExclusions = map[string][]string{
	"fun":             {"offroad", "niaga"},
	"offroad":         {"fun"},
	"niaga":           {"fun"},
	"perjalanan_jauh": {"perkotaan"},
	"perkotaan":       {"perjalanan_jauh"},
}

func needsConflict(a, b string) bool {
	for _, x := range needExclusions[a] {
		if x == b {
			return true
		}
	}
	for _, x := range needExclusions[b] {
		if x == a {
			return true
		}
	}
	return false
}

// FormOptions are the choices the form is rendered against
type FormOptions struct {
	BudgetDefault int64
	Fuels         []model.MetaFuel
	Needs         []model.Need
}

// OptionsFromMeta snapshots the current metadata into form options
func OptionsFromMeta(meta *MetaService) FormOptions {
	return FormOptions{
		BudgetDefault: meta.BudgetDefault(),
		Fuels:         meta.FuelOptions(),
		Needs:         meta.Needs(),
	}
}

// Form is the criteria form state machine. It is not safe for concurrent use;
// SearchFlow serializes access per session.
type Form struct {
	Budget       int64
	Needs        []string
	Fuels        []model.FuelCode
	Transmission string
	Brand        string

	NeedsError string
	FuelsError string

	opts         FormOptions
	fuelsTouched bool
}

// NewForm creates a form with defaults: budget from options, no needs and every fuel selected
func NewForm(opts FormOptions) *Form {
	f := &Form{}
	f.reset(opts)
	return f
}

func (f *Form) reset(opts FormOptions) {
	if len(opts.Fuels) == 0 {
		opts.Fuels = DefaultFuelOptions()
	}
	if opts.BudgetDefault == 0 {
		opts.BudgetDefault = BudgetMin
	}
	*f = Form{
		Budget: ClampBudget(opts.BudgetDefault),
		Needs:  []string{},
		Fuels:  optionCodes(opts.Fuels),
		opts:   opts,
	}
}

// Reset restores every field to its default
func (f *Form) Reset(opts FormOptions) {
	f.reset(opts)
}

// ApplyOptions swaps in fresh metadata. Untouched fuel selections follow the
// new option set; touched ones are intersected with it.
func (f *Form) ApplyOptions(opts FormOptions) {
	if len(opts.Fuels) == 0 {
		opts.Fuels = DefaultFuelOptions()
	}
	f.opts = opts

	if !f.fuelsTouched {
		f.Fuels = optionCodes(opts.Fuels)
		return
	}
	kept := f.Fuels[:0:0]
	for _, c := range f.Fuels {
		if f.hasFuelOption(c) {
			kept = append(kept, c)
		}
	}
	f.Fuels = kept
}

// Options returns the options the form was built with
func (f *Form) Options() FormOptions {
	return f.opts
}

// SetBudget sets a typed budget, rounded to the step. It may exceed the
// slider range up to BudgetInputMax.
func (f *Form) SetBudget(v int64) {
	f.Budget = NormalizeBudget(v)
}

// SliderBudget is the slider position for the current budget
func (f *Form) SliderBudget() int64 {
	return ClampBudget(f.Budget)
}

// NeedBlockReason explains why key cannot be added right now, or "" if it can
func (f *Form) NeedBlockReason(key string) string {
	k := utils.CanonNeed(key)
	if f.HasNeed(k) {
		return ""
	}
	if !f.offersNeed(k) {
		return ReasonUnknownNeed
	}
	if len(f.Needs) >= MaxNeeds {
		return ReasonMaxNeeds
	}
	for _, sel := range f.Needs {
		if needsConflict(k, sel) {
			return reasonConflictWith + f.needLabel(sel)
		}
	}
	return ""
}

// ToggleNeed selects or deselects a need. Deselecting always succeeds.
// Selecting is rejected with a reason when the need is not offered, would
// exceed MaxNeeds or conflicts with an already selected need; Needs is then
// left unchanged.
func (f *Form) ToggleNeed(key string) (bool, string) {
	k := utils.CanonNeed(key)
	if k == "" {
		return false, ""
	}

	for i, sel := range f.Needs {
		if sel == k {
			f.Needs = append(f.Needs[:i:i], f.Needs[i+1:]...)
			f.NeedsError = ""
			return true, ""
		}
	}

	if reason := f.NeedBlockReason(k); reason != "" {
		return false, reason
	}
	f.Needs = append(f.Needs, k)
	f.NeedsError = ""
	return true, ""
}

// HasNeed reports whether a canonical need key is selected
func (f *Form) HasNeed(key string) bool {
	for _, sel := range f.Needs {
		if sel == key {
			return true
		}
	}
	return false
}

// ToggleFuel flips one fuel code. Codes outside the option set are ignored.
func (f *Form) ToggleFuel(code model.FuelCode) bool {
	code = model.FuelCode(strings.ToLower(string(code)))
	if !f.hasFuelOption(code) {
		return false
	}
	f.fuelsTouched = true
	f.FuelsError = ""

	selected := make(map[model.FuelCode]bool, len(f.Fuels))
	for _, c := range f.Fuels {
		selected[c] = true
	}
	selected[code] = !selected[code]
	f.Fuels = f.orderedSelection(selected)
	return true
}

// ToggleAllFuels clears the selection when every option is selected, otherwise selects all
func (f *Form) ToggleAllFuels() {
	f.fuelsTouched = true
	f.FuelsError = ""
	if f.AllFuelsSelected() {
		f.Fuels = []model.FuelCode{}
		return
	}
	f.Fuels = optionCodes(f.opts.Fuels)
}

// SetFuels replaces the fuel selection, ignoring codes outside the option set
func (f *Form) SetFuels(codes []model.FuelCode) {
	f.fuelsTouched = true
	f.FuelsError = ""
	selected := make(map[model.FuelCode]bool, len(codes))
	for _, c := range codes {
		selected[model.FuelCode(strings.ToLower(string(c)))] = true
	}
	f.Fuels = f.orderedSelection(selected)
}

// HasFuel reports whether a fuel code is selected
func (f *Form) HasFuel(code model.FuelCode) bool {
	for _, c := range f.Fuels {
		if c == code {
			return true
		}
	}
	return false
}

// AllFuelsSelected reports whether every fuel option is selected
func (f *Form) AllFuelsSelected() bool {
	if len(f.opts.Fuels) == 0 {
		return false
	}
	for _, o := range f.opts.Fuels {
		if !f.HasFuel(o.Code) {
			return false
		}
	}
	return true
}

// SetTransmission accepts Matic, Manual or "" for any; other values reset to any
func (f *Form) SetTransmission(v string) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "matic", "automatic", "at":
		f.Transmission = model.TransMatic
	case "manual", "mt":
		f.Transmission = model.TransManual
	default:
		f.Transmission = ""
	}
}

// SetBrand sets the optional brand filter
func (f *Form) SetBrand(v string) {
	f.Brand = strings.TrimSpace(v)
}

// Validate reports whether the form may be submitted and sets the inline
// errors for each unmet condition. No network call is made here.
func (f *Form) Validate() bool {
	ok := true
	if len(f.Needs) == 0 {
		f.NeedsError = ErrNeedsRequired
		ok = false
	}
	if len(f.Fuels) == 0 {
		f.FuelsError = ErrFuelsRequired
		ok = false
	}
	return ok
}

// Criteria assembles the submission. The fuel filter is omitted when every
// option is selected, which the backend reads as unrestricted.
func (f *Form) Criteria() model.Criteria {
	c := model.Criteria{
		Budget: f.Budget,
		Needs:  append([]string{}, f.Needs...),
		Filters: model.Filters{
			TransChoice: f.Transmission,
			Brand:       f.Brand,
		},
	}
	if !f.AllFuelsSelected() {
		c.Filters.Fuels = append([]model.FuelCode(nil), f.Fuels...)
	}
	return c
}

// Prefill copies constraints understood by the chat assistant into the form.
// Needs that conflict or exceed the limit are skipped.
func (f *Form) Prefill(pc *model.ParsedConstraints) {
	if pc == nil {
		return
	}
	if pc.Budget > 0 {
		f.SetBudget(int64(pc.Budget))
	}
	if len(pc.Needs) > 0 {
		f.Needs = []string{}
		for _, n := range utils.CanonNeeds(pc.Needs) {
			if f.NeedBlockReason(n) == "" {
				f.Needs = append(f.Needs, n)
			}
		}
		f.NeedsError = ""
	}
	if len(pc.Filters.Fuels) > 0 {
		f.SetFuels(pc.Filters.Fuels)
	}
	if pc.Filters.TransChoice != "" {
		f.SetTransmission(pc.Filters.TransChoice)
	}
	if pc.Filters.Brand != "" {
		f.SetBrand(pc.Filters.Brand)
	}
}

// NeedLabel returns the display label for a selected or offered need
func (f *Form) NeedLabel(key string) string {
	return f.needLabel(key)
}

func (f *Form) needLabel(key string) string {
	for _, n := range f.opts.Needs {
		if utils.CanonNeed(n.Key) == key && n.Label != "" {
			return n.Label
		}
	}
	for _, n := range DefaultNeeds {
		if n.Key == key {
			return n.Label
		}
	}
	return key
}

func (f *Form) offersNeed(key string) bool {
	offered := f.opts.Needs
	if len(offered) == 0 {
		offered = DefaultNeeds
	}
	for _, n := range offered {
		if utils.CanonNeed(n.Key) == key {
			return true
		}
	}
	return false
}

func (f *Form) hasFuelOption(code model.FuelCode) bool {
	for _, o := range f.opts.Fuels {
		if o.Code == code {
			return true
		}
	}
	return false
}

func (f *Form) orderedSelection(selected map[model.FuelCode]bool) []model.FuelCode {
	out := []model.FuelCode{}
	for _, o := range f.opts.Fuels {
		if selected[o.Code] {
			out = append(out, o.Code)
		}
	}
	return out
}

func optionCodes(opts []model.MetaFuel) []model.FuelCode {
	out := make([]model.FuelCode, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Code)
	}
	return out
}

// Clone returns an independent copy of the form
func (f *Form) Clone() *Form {
	out := *f
	out.Needs = append([]string{}, f.Needs...)
	out.Fuels = append([]model.FuelCode{}, f.Fuels...)
	return &out
}
