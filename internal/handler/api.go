package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vroom/internal/backend"
	"vroom/internal/middleware"
	"vroom/internal/model"
	"vroom/internal/service"
	"vroom/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// APIHandler serves the JSON API used by script-driven clients
type APIHandler struct {
	meta       *service.MetaService
	flow       *service.SearchFlow
	assistant  *service.Assistant
	normalizer *service.Normalizer
	logger     zerolog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(meta *service.MetaService, flow *service.SearchFlow, assistant *service.Assistant, normalizer *service.Normalizer, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		meta:       meta,
		flow:       flow,
		assistant:  assistant,
		normalizer: normalizer,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

type metaResponse struct {
	Brands        []string         `json:"brands"`
	Fuels         []model.MetaFuel `json:"fuels"`
	Needs         []model.Need     `json:"needs"`
	DataReady     *model.DataReady `json:"data_ready"`
	BudgetDefault int64            `json:"budget_default"`
	BudgetMin     int64            `json:"budget_min"`
	BudgetMax     int64            `json:"budget_max"`
	BudgetStep    int64            `json:"budget_step"`
	FetchedAt     *time.Time       `json:"fetched_at,omitempty"`
}

// GetMeta handles GET /api/v1/meta. Metadata is refetched on every call;
// a failed fetch answers with the previous or default values.
func (h *APIHandler) GetMeta(c *gin.Context) {
	_ = h.meta.Refetch(c.Request.Context())

	resp := metaResponse{
		Brands:        h.meta.Brands(),
		Fuels:         h.meta.FuelOptions(),
		Needs:         h.meta.Needs(),
		BudgetDefault: h.meta.BudgetDefault(),
		BudgetMin:     service.BudgetMin,
		BudgetMax:     service.BudgetMax,
		BudgetStep:    service.BudgetStep,
	}
	if resp.Brands == nil {
		resp.Brands = []string{}
	}
	if ready, ok := h.meta.DataReady(); ok {
		resp.DataReady = &ready
		at := h.meta.FetchedAt()
		resp.FetchedAt = &at
	}
	c.JSON(http.StatusOK, resp)
}

type recommendRequest struct {
	Budget  int64         `json:"budget" binding:"required"`
	Needs   []string      `json:"needs"`
	Filters model.Filters `json:"filters"`
}

type recommendationsResponse struct {
	Count   int                 `json:"count"`
	Items   []service.Card      `json:"items"`
	Budget  float64             `json:"budget,omitempty"`
	Needs   []string            `json:"needs,omitempty"`
	Message string              `json:"message,omitempty"`
	Hint    *model.Hint         `json:"hint,omitempty"`
	Empty   *service.EmptyState `json:"empty,omitempty"`
}

// Recommend handles POST /api/v1/recommendations. The criteria go through
// the same form rules as the page, and the result becomes the session's
// active result set.
func (h *APIHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sid := middleware.SessionID(c)

	// built aside so a rejected request leaves the session's form alone
	form := service.NewForm(service.OptionsFromMeta(h.meta))
	form.SetBudget(req.Budget)
	for _, n := range utils.CanonNeeds(req.Needs) {
		if ok, reason := form.ToggleNeed(n); !ok && reason != "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": reason, "need": n})
			return
		}
	}
	if len(req.Filters.Fuels) > 0 {
		form.SetFuels(req.Filters.Fuels)
	}
	form.SetTransmission(req.Filters.TransChoice)
	form.SetBrand(req.Filters.Brand)
	h.flow.Replace(sid, form)

	st, err := h.flow.Submit(c.Request.Context(), sid)
	if err != nil {
		h.writeSubmitError(c, st, err)
		return
	}

	out := recommendationsResponse{
		Count:   st.Active.Count,
		Items:   h.normalizer.BuildCards(st.Active),
		Budget:  st.Active.Budget,
		Needs:   st.Active.Needs,
		Message: st.Active.Message,
		Hint:    st.Active.Hint,
	}
	if len(out.Items) == 0 {
		empty := service.DescribeEmpty(st.Active)
		out.Empty = &empty
	}
	c.JSON(http.StatusOK, out)
}

func (h *APIHandler) writeSubmitError(c *gin.Context, st service.PageState, err error) {
	var httpErr *backend.HTTPError
	switch {
	case errors.Is(err, service.ErrInvalidForm):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       "Invalid criteria",
			"needs_error": st.Form.NeedsError,
			"fuels_error": st.Form.FuelsError,
		})
	case errors.Is(err, service.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": "Superseded by a newer request"})
	case errors.Is(err, backend.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": service.UserMessage(err)})
	case errors.As(err, &httpErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": service.UserMessage(err), "status": httpErr.Status})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": service.UserMessage(err)})
	}
}

type conversationResponse struct {
	Messages       []model.Message         `json:"messages"`
	State          model.ConversationState `json:"state"`
	ResizeHintSeen bool                    `json:"resize_hint_seen"`
	Suggestions    []string                `json:"suggestions"`
}

func newConversationResponse(conv *model.Conversation) conversationResponse {
	return conversationResponse{
		Messages:       conv.Messages,
		State:          conv.State,
		ResizeHintSeen: conv.ResizeHintSeen,
		Suggestions:    service.SuggestedPrompts,
	}
}

// GetChat handles GET /api/v1/chat
func (h *APIHandler) GetChat(c *gin.Context) {
	conv, err := h.assistant.Restore(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, newConversationResponse(conv))
}

type chatRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	conversationResponse
	Reset          bool                     `json:"reset"`
	Failed         bool                     `json:"failed"`
	Constraints    *model.ParsedConstraints `json:"parsed_constraints,omitempty"`
	Recommendation []service.Card           `json:"recommendation,omitempty"`
	Redirect       string                   `json:"redirect,omitempty"`
}

// PostChat handles POST /api/v1/chat
func (h *APIHandler) PostChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sid := middleware.SessionID(c)
	turn, err := h.assistant.Send(c.Request.Context(), sid, req.Message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.turnResponse(sid, turn))
}

type analyzeRequest struct {
	Rank int `json:"rank" binding:"required,min=1"`
}

// Analyze handles POST /api/v1/chat/analyze
func (h *APIHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sid := middleware.SessionID(c)
	resp, ok := h.flow.Active(sid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active recommendation"})
		return
	}
	cards := h.normalizer.BuildCards(resp)
	if req.Rank > len(cards) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Car not found"})
		return
	}

	turn, err := h.assistant.Analyze(c.Request.Context(), sid, cards[req.Rank-1].Item, req.Rank)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.turnResponse(sid, turn))
}

// DeleteChat handles DELETE /api/v1/chat
func (h *APIHandler) DeleteChat(c *gin.Context) {
	conv, err := h.assistant.Reset(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset conversation: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, newConversationResponse(conv))
}

// ChatStream handles POST /api/v1/chat/stream - SSE progress of one chat turn
func (h *APIHandler) ChatStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"message": req.Message})
	flusher.Flush()

	sid := middleware.SessionID(c)
	turn, err := h.assistant.SendStream(c.Request.Context(), sid, req.Message, func(ev service.ChatEvent) {
		sendSSE(c, ev.Type, ev.Data)
		flusher.Flush()
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "turn", h.turnResponse(sid, turn))
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

func (h *APIHandler) turnResponse(sid string, turn *service.Turn) turnResponse {
	out := turnResponse{
		conversationResponse: newConversationResponse(turn.Conversation),
		Reset:                turn.Reset,
		Failed:               turn.Failed,
		Constraints:          turn.Constraints,
	}
	if len(turn.Suggestions) > 0 {
		out.Suggestions = turn.Suggestions
	}
	if turn.Constraints != nil {
		h.flow.PrefillFromChat(sid, turn.Constraints)
	}
	if turn.Recommendation != nil {
		h.flow.Adopt(sid, turn.Recommendation)
		out.Recommendation = h.normalizer.BuildCards(turn.Recommendation)
		out.Redirect = "/results"
	}
	return out
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
