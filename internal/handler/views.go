package handler

import (
	"html/template"
	"strings"

	"vroom/internal/model"
	"vroom/internal/service"
	"vroom/internal/utils"
)

// TemplateFuncs are the helpers available to page templates
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"idr":       utils.FormatIDR,
		"idrShort":  utils.FormatIDRShort,
		"idrInt":    func(v int64) string { return utils.FormatIDR(float64(v)) },
		"fuelLabel": utils.FuelLabel,
		"bold":      boldMarkdown,
		"add":       func(a, b int) int { return a + b },
	}
}

// boldMarkdown escapes text and renders **x** spans as <strong>
func boldMarkdown(s string) template.HTML {
	parts := strings.Split(template.HTMLEscapeString(s), "**")
	var b strings.Builder
	for i, p := range parts {
		if i%2 == 1 && i < len(parts)-1 {
			b.WriteString("<strong>" + p + "</strong>")
			continue
		}
		if i%2 == 1 {
			b.WriteString("**")
		}
		b.WriteString(p)
	}
	return template.HTML(b.String())
}

type needView struct {
	Key      string
	Label    string
	Image    string
	Selected bool
	Blocked  string
}

type fuelView struct {
	Code     string
	Label    string
	Selected bool
}

type chatView struct {
	From           string
	Messages       []model.Message
	Suggestions    []string
	ResizeHintSeen bool
	Failed         bool
}

type formPage struct {
	Form         *service.Form
	Needs        []needView
	Fuels        []fuelView
	AllFuels     bool
	Brands       []string
	BudgetMin    int64
	BudgetMax    int64
	BudgetStep   int64
	Error        string
	Flash        string
	DataReady    model.DataReady
	MetaLoaded   bool
	Chat         chatView
	Transmission []string
}

type resultsPage struct {
	Cards   []service.Card
	Count   int
	Budget  float64
	Needs   []string
	Message string
	Empty   *service.EmptyState
	Chat    chatView
}

func buildFormPage(st service.PageState, meta *service.MetaService, chat chatView) formPage {
	f := st.Form
	opts := f.Options()

	needs := opts.Needs
	if len(needs) == 0 {
		needs = service.DefaultNeeds
	}
	nv := make([]needView, 0, len(needs))
	for _, n := range needs {
		key := utils.CanonNeed(n.Key)
		nv = append(nv, needView{
			Key:      key,
			Label:    n.Label,
			Image:    n.Image,
			Selected: f.HasNeed(key),
			Blocked:  f.NeedBlockReason(key),
		})
	}

	fv := make([]fuelView, 0, len(opts.Fuels))
	for _, o := range opts.Fuels {
		fv = append(fv, fuelView{Code: string(o.Code), Label: o.Label, Selected: f.HasFuel(o.Code)})
	}

	ready, loaded := meta.DataReady()
	return formPage{
		Form:         f,
		Needs:        nv,
		Fuels:        fv,
		AllFuels:     f.AllFuelsSelected(),
		Brands:       meta.Brands(),
		BudgetMin:    service.BudgetMin,
		BudgetMax:    service.BudgetMax,
		BudgetStep:   service.BudgetStep,
		Error:        st.Error,
		DataReady:    ready,
		MetaLoaded:   loaded,
		Chat:         chat,
		Transmission: []string{model.TransMatic, model.TransManual},
	}
}

func buildChatView(conv *model.Conversation, failed bool) chatView {
	cv := chatView{Suggestions: service.SuggestedPrompts, Failed: failed}
	if conv != nil {
		cv.Messages = conv.Messages
		cv.ResizeHintSeen = conv.ResizeHintSeen
	}
	return cv
}
