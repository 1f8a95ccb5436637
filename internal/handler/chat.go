package handler

import (
	"net/http"
	"strconv"

	"vroom/internal/middleware"
	"vroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ChatHandler serves the chat panel embedded in the form and results pages
type ChatHandler struct {
	assistant  *service.Assistant
	flow       *service.SearchFlow
	normalizer *service.Normalizer
	logger     zerolog.Logger
}

// NewChatHandler creates a new chat panel handler
func NewChatHandler(assistant *service.Assistant, flow *service.SearchFlow, normalizer *service.Normalizer, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		assistant:  assistant,
		flow:       flow,
		normalizer: normalizer,
		logger:     logger.With().Str("component", "chat").Logger(),
	}
}

// Send handles POST /chat from the panel form
func (h *ChatHandler) Send(c *gin.Context) {
	sid := middleware.SessionID(c)
	turn, err := h.assistant.Send(c.Request.Context(), sid, c.PostForm("message"))
	if err != nil {
		h.logger.Error().Err(err).Str("session", sid).Msg("chat send failed")
		c.String(http.StatusInternalServerError, service.MsgGeneric)
		return
	}
	c.Redirect(http.StatusSeeOther, h.applyTurn(c, sid, turn))
}

// Analyze handles POST /chat/analyze: asks the assistant about the card at rank
func (h *ChatHandler) Analyze(c *gin.Context) {
	sid := middleware.SessionID(c)
	rank, err := strconv.Atoi(c.PostForm("rank"))
	if err != nil || rank < 1 {
		c.String(http.StatusBadRequest, "rank tidak valid")
		return
	}

	resp, ok := h.flow.Active(sid)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	cards := h.normalizer.BuildCards(resp)
	if rank > len(cards) {
		c.String(http.StatusNotFound, "mobil tidak ditemukan")
		return
	}

	turn, err := h.assistant.Analyze(c.Request.Context(), sid, cards[rank-1].Item, rank)
	if err != nil {
		h.logger.Error().Err(err).Str("session", sid).Int("rank", rank).Msg("analysis failed")
		c.String(http.StatusInternalServerError, service.MsgGeneric)
		return
	}
	c.Redirect(http.StatusSeeOther, h.applyTurn(c, sid, turn))
}

// HintSeen handles POST /chat/hint-seen
func (h *ChatHandler) HintSeen(c *gin.Context) {
	sid := middleware.SessionID(c)
	if err := h.assistant.MarkResizeHintSeen(c.Request.Context(), sid); err != nil {
		h.logger.Error().Err(err).Str("session", sid).Msg("failed to store hint flag")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

// applyTurn hands recommendation and constraints to the page flow and
// returns where the browser should go next
func (h *ChatHandler) applyTurn(c *gin.Context, sid string, turn *service.Turn) string {
	if turn.Constraints != nil {
		h.flow.PrefillFromChat(sid, turn.Constraints)
	}
	if turn.Recommendation != nil {
		h.flow.Adopt(sid, turn.Recommendation)
		return "/results#chat"
	}
	return backTo(c)
}

func backTo(c *gin.Context) string {
	switch c.PostForm("from") {
	case "results":
		return "/results#chat"
	default:
		return "/#chat"
	}
}
