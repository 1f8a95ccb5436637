package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"vroom/internal/middleware"
	"vroom/internal/model"
	"vroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PageHandler serves the server-rendered criteria form and results view
type PageHandler struct {
	meta       *service.MetaService
	flow       *service.SearchFlow
	assistant  *service.Assistant
	normalizer *service.Normalizer
	logger     zerolog.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(meta *service.MetaService, flow *service.SearchFlow, assistant *service.Assistant, normalizer *service.Normalizer, logger zerolog.Logger) *PageHandler {
	return &PageHandler{
		meta:       meta,
		flow:       flow,
		assistant:  assistant,
		normalizer: normalizer,
		logger:     logger.With().Str("component", "pages").Logger(),
	}
}

// Index handles GET /. Landing on the form always refetches metadata.
func (h *PageHandler) Index(c *gin.Context) {
	sid := middleware.SessionID(c)
	st := h.flow.Landing(c.Request.Context(), sid)
	h.renderForm(c, http.StatusOK, st, "")
}

// SetBudget handles POST /form/budget. The typed amount wins unless it is
// unchanged and only the slider moved.
func (h *PageHandler) SetBudget(c *gin.Context) {
	typed, typedErr := parseBudget(c.PostForm("budget"))
	slider, sliderErr := parseBudget(c.PostForm("budget_slider"))
	if typedErr != nil && sliderErr != nil {
		st := h.flow.State(middleware.SessionID(c))
		h.renderForm(c, http.StatusBadRequest, st, "Budget tidak valid")
		return
	}

	st := h.flow.Update(middleware.SessionID(c), func(f *service.Form) {
		switch {
		case typedErr != nil:
			f.SetBudget(service.ClampBudget(slider))
		case sliderErr == nil && typed == f.Budget && slider != f.SliderBudget():
			f.SetBudget(service.ClampBudget(slider))
		default:
			f.SetBudget(typed)
		}
	})
	h.renderForm(c, http.StatusOK, st, "")
}

// ToggleNeed handles POST /form/needs/:key. A rejected toggle re-renders
// the form with the reason and leaves the selection as it was.
func (h *PageHandler) ToggleNeed(c *gin.Context) {
	key := c.Param("key")
	var reason string
	st := h.flow.Update(middleware.SessionID(c), func(f *service.Form) {
		_, reason = f.ToggleNeed(key)
	})
	h.renderForm(c, http.StatusOK, st, reason)
}

// ToggleFuel handles POST /form/fuels/:code, where the code "all" flips every option
func (h *PageHandler) ToggleFuel(c *gin.Context) {
	code := c.Param("code")
	st := h.flow.Update(middleware.SessionID(c), func(f *service.Form) {
		if code == "all" {
			f.ToggleAllFuels()
			return
		}
		f.ToggleFuel(model.FuelCode(code))
	})
	h.renderForm(c, http.StatusOK, st, "")
}

// SetTransmission handles POST /form/transmission
func (h *PageHandler) SetTransmission(c *gin.Context) {
	v := c.PostForm("transmission")
	st := h.flow.Update(middleware.SessionID(c), func(f *service.Form) { f.SetTransmission(v) })
	h.renderForm(c, http.StatusOK, st, "")
}

// SetBrand handles POST /form/brand
func (h *PageHandler) SetBrand(c *gin.Context) {
	v := c.PostForm("brand")
	st := h.flow.Update(middleware.SessionID(c), func(f *service.Form) { f.SetBrand(v) })
	h.renderForm(c, http.StatusOK, st, "")
}

// Reset handles POST /form/reset
func (h *PageHandler) Reset(c *gin.Context) {
	st := h.flow.BackToForm(c.Request.Context(), middleware.SessionID(c))
	h.renderForm(c, http.StatusOK, st, "")
}

// Submit handles POST /form/submit
func (h *PageHandler) Submit(c *gin.Context) {
	sid := middleware.SessionID(c)
	st, err := h.flow.Submit(c.Request.Context(), sid)
	switch {
	case err == nil, errors.Is(err, service.ErrSuperseded):
		c.Redirect(http.StatusSeeOther, "/results")
	case errors.Is(err, service.ErrInvalidForm):
		h.renderForm(c, http.StatusUnprocessableEntity, st, "")
	default:
		h.renderForm(c, http.StatusBadGateway, st, "")
	}
}

// Results handles GET /results
func (h *PageHandler) Results(c *gin.Context) {
	sid := middleware.SessionID(c)
	resp, ok := h.flow.Active(sid)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	conv, err := h.assistant.Restore(c.Request.Context(), sid)
	if err != nil {
		h.logger.Error().Err(err).Str("session", sid).Msg("failed to restore conversation")
	}

	page := resultsPage{
		Cards:   h.normalizer.BuildCards(resp),
		Count:   resp.Count,
		Budget:  resp.Budget,
		Needs:   resp.Needs,
		Message: resp.Message,
		Chat:    buildChatView(conv, false),
	}
	page.Chat.From = "results"
	if len(page.Cards) == 0 {
		empty := service.DescribeEmpty(resp)
		page.Empty = &empty
	}
	c.HTML(http.StatusOK, "results.html", page)
}

// Back handles POST /results/back
func (h *PageHandler) Back(c *gin.Context) {
	h.flow.BackToForm(c.Request.Context(), middleware.SessionID(c))
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *PageHandler) renderForm(c *gin.Context, status int, st service.PageState, flash string) {
	sid := middleware.SessionID(c)
	conv, err := h.assistant.Restore(c.Request.Context(), sid)
	if err != nil {
		h.logger.Error().Err(err).Str("session", sid).Msg("failed to restore conversation")
	}

	page := buildFormPage(st, h.meta, buildChatView(conv, false))
	page.Flash = flash
	c.HTML(status, "index.html", page)
}

// parseBudget accepts plain digits or "300.000.000" style input
func parseBudget(s string) (int64, error) {
	s = strings.NewReplacer(".", "", ",", "", " ", "", "_", "").Replace(strings.TrimSpace(s))
	return strconv.ParseInt(s, 10, 64)
}
