package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vroom/internal/model"
	"vroom/internal/repository"

	"github.com/rs/zerolog"
)

// Canned assistant messages
const (
	Greeting      = "Hai! Saya AI VRoom. Tanyakan rekomendasi mobil atau **klik gambar mobil** di hasil rekomendasi untuk analisis detail."
	ResetMessage  = "Percakapan sudah direset. Yuk mulai lagi, ceritakan budget dan kebutuhan mobilmu."
	ApologyReply  = "Maaf, ada gangguan koneksi."
	EmptyReply    = "Maaf, error."
	analysisLabel = "Bagaimana pendapatmu soal %s?"
)

// SuggestedPrompts are offered as one-click starters in the chat panel
var SuggestedPrompts = []string{
	"Cari mobil keluarga 300jt",
	"Mobil irit buat dalam kota",
	"SUV tangguh buat offroad",
}

var resetCommands = map[string]bool{
	"clear":      true,
	"reset":      true,
	"ulangi":     true,
	"mulai baru": true,
}

// IsResetCommand reports whether text is one of the local reset commands
func IsResetCommand(text string) bool {
	return resetCommands[strings.ToLower(strings.TrimSpace(text))]
}

// DefaultChatTimeout bounds a single backend chat turn
const DefaultChatTimeout = 60 * time.Second

// Turn is the outcome of one chat send
type Turn struct {
	Conversation   *model.Conversation
	Recommendation *model.RecommendResponse
	Constraints    *model.ParsedConstraints
	Suggestions    []string
	Reset          bool
	Failed         bool
	Err            error
}

// ChatEvent is emitted while a turn progresses, for streaming transports
type ChatEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Chat event types
const (
	EventUser           = "user"
	EventReply          = "reply"
	EventState          = "state"
	EventRecommendation = "recommendation"
	EventConstraints    = "constraints"
	EventReset          = "reset"
	EventError          = "error"
)

// Assistant runs the conversational assistant on top of a durable store.
// Turns for the same session are serialized so replies land in send order.
type Assistant struct {
	backend ChatBackend
	store   repository.ConversationStore
	timeout time.Duration
	logger  zerolog.Logger
	locks   *keyedMutex
}

// NewAssistant creates the chat assistant
func NewAssistant(backend ChatBackend, store repository.ConversationStore, timeout time.Duration, logger zerolog.Logger) *Assistant {
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	return &Assistant{
		backend: backend,
		store:   store,
		timeout: timeout,
		logger:  logger.With().Str("component", "assistant").Logger(),
		locks:   newKeyedMutex(),
	}
}

// Restore returns the session's conversation, seeding the greeting when none is stored
func (a *Assistant) Restore(ctx context.Context, sessionID string) (*model.Conversation, error) {
	unlock := a.locks.Lock(sessionID)
	defer unlock()
	return a.restore(ctx, sessionID)
}

func (a *Assistant) restore(ctx context.Context, sessionID string) (*model.Conversation, error) {
	conv, err := a.store.Load(ctx, sessionID)
	if err == nil && len(conv.Messages) > 0 {
		return conv, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	seeded := &model.Conversation{
		SessionID: sessionID,
		Messages:  model.MessageLog{{From: model.FromBot, Text: Greeting, Kind: model.KindSystem}},
		State:     model.ConversationState{Needs: []string{}},
	}
	if conv != nil {
		seeded.State = conv.State
		seeded.ResizeHintSeen = conv.ResizeHintSeen
	}
	if err := a.store.Save(ctx, seeded); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}
	return seeded, nil
}

// Send runs one free-text turn. The returned error is reserved for storage
// failures before the turn started; backend failures are reported through
// Turn.Failed and Turn.Err with the apology already appended.
func (a *Assistant) Send(ctx context.Context, sessionID, text string) (*Turn, error) {
	return a.SendStream(ctx, sessionID, text, nil)
}

// SendStream is Send with progress events delivered to onEvent as they happen
func (a *Assistant) SendStream(ctx context.Context, sessionID, text string, onEvent func(ChatEvent)) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		conv, err := a.Restore(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &Turn{Conversation: conv}, nil
	}

	if IsResetCommand(text) {
		conv, err := a.Reset(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		emit(onEvent, ChatEvent{Type: EventReset, Data: conv.Messages[0]})
		return &Turn{Conversation: conv, Reset: true}, nil
	}

	return a.turn(ctx, sessionID, &model.ChatRequest{Message: text, Kind: model.KindText}, model.Message{
		From: model.FromUser,
		Text: text,
		Kind: model.KindText,
	}, onEvent)
}

// Analyze asks the assistant for an opinion on one recommended car. The
// backend receives a structured subject; the log shows a readable question.
func (a *Assistant) Analyze(ctx context.Context, sessionID string, item model.RecommendItem, rank int) (*Turn, error) {
	title := item.Title()
	if title == "" {
		return nil, errors.New("analysis subject has no brand or model")
	}

	req := &model.ChatRequest{
		Message: fmt.Sprintf("Tolong analisis %s (peringkat %d).", title, rank),
		Kind:    model.KindAnalysis,
		Subject: &model.AnalysisSubject{
			Brand:    item.Brand,
			Model:    item.Model,
			Price:    item.Price,
			FitScore: item.FitScore,
			Rank:     rank,
		},
	}
	shown := model.Message{
		From: model.FromUser,
		Text: fmt.Sprintf(analysisLabel, title),
		Kind: model.KindAnalysis,
	}
	return a.turn(ctx, sessionID, req, shown, nil)
}

func (a *Assistant) turn(ctx context.Context, sessionID string, req *model.ChatRequest, shown model.Message, onEvent func(ChatEvent)) (*Turn, error) {
	unlock := a.locks.Lock(sessionID)
	defer unlock()

	conv, err := a.restore(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// optimistic append, persisted before the backend is asked
	conv.Messages = append(conv.Messages, shown)
	if err := a.store.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}
	emit(onEvent, ChatEvent{Type: EventUser, Data: shown})

	snapshot := conv.State.Clone()
	req.State = &snapshot

	// the turn completes even if the caller goes away
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	start := time.Now()
	reply, err := a.backend.Chat(callCtx, req)
	if err != nil {
		a.logger.Warn().Err(err).Str("session", sessionID).Str("kind", req.Kind).Dur("elapsed", time.Since(start)).Msg("chat turn failed")

		apology := model.Message{From: model.FromBot, Text: ApologyReply, Kind: model.KindSystem}
		conv.Messages = append(conv.Messages, apology)
		a.persist(conv)
		emit(onEvent, ChatEvent{Type: EventError, Data: apology})
		return &Turn{Conversation: conv, Failed: true, Err: err}, nil
	}

	text := strings.TrimSpace(reply.Reply)
	if text == "" {
		text = EmptyReply
	}
	bot := model.Message{From: model.FromBot, Text: text, Kind: model.KindText}
	conv.Messages = append(conv.Messages, bot)
	conv.State = ReduceState(conv.State, reply.State)
	a.persist(conv)

	t := &Turn{
		Conversation: conv,
		Constraints:  reply.ParsedConstraints,
		Suggestions:  reply.SuggestedQuestions,
	}
	if reply.Recommendation != nil {
		t.Recommendation = reply.Recommendation.Response()
	}

	emit(onEvent, ChatEvent{Type: EventReply, Data: bot})
	emit(onEvent, ChatEvent{Type: EventState, Data: conv.State})
	if t.Constraints != nil {
		emit(onEvent, ChatEvent{Type: EventConstraints, Data: t.Constraints})
	}
	if t.Recommendation != nil {
		emit(onEvent, ChatEvent{Type: EventRecommendation, Data: t.Recommendation})
	}

	a.logger.Info().
		Str("session", sessionID).
		Str("kind", req.Kind).
		Str("step", conv.State.Step).
		Bool("recommendation", t.Recommendation != nil).
		Dur("elapsed", time.Since(start)).
		Msg("chat turn completed")
	return t, nil
}

// persist writes after the backend replied; failures are logged, never returned
func (a *Assistant) persist(conv *model.Conversation) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Save(ctx, conv); err != nil {
		a.logger.Error().Err(err).Str("session", conv.SessionID).Msg("failed to persist conversation")
	}
}

// Reset clears the stored conversation and leaves exactly one confirmation message
func (a *Assistant) Reset(ctx context.Context, sessionID string) (*model.Conversation, error) {
	unlock := a.locks.Lock(sessionID)
	defer unlock()

	prev, err := a.store.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if err := a.store.Clear(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to clear conversation: %w", err)
	}

	conv := &model.Conversation{
		SessionID: sessionID,
		Messages:  model.MessageLog{{From: model.FromBot, Text: ResetMessage, Kind: model.KindSystem}},
		State:     model.ConversationState{Needs: []string{}},
	}
	if prev != nil {
		conv.ResizeHintSeen = prev.ResizeHintSeen
	}
	if err := a.store.Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	a.logger.Info().Str("session", sessionID).Msg("conversation reset")
	return conv, nil
}

// MarkResizeHintSeen records that the one-time resize hint was shown
func (a *Assistant) MarkResizeHintSeen(ctx context.Context, sessionID string) error {
	unlock := a.locks.Lock(sessionID)
	defer unlock()

	conv, err := a.restore(ctx, sessionID)
	if err != nil {
		return err
	}
	if conv.ResizeHintSeen {
		return nil
	}
	conv.ResizeHintSeen = true
	return a.store.Save(ctx, conv)
}

// ReduceState applies the backend's state to the current one. The backend is
// authoritative: its state replaces the current one wholesale, and a reply
// without state leaves the current one as it was.
func ReduceState(current model.ConversationState, server *model.ConversationState) model.ConversationState {
	if server == nil {
		return current
	}
	next := server.Clone()
	if next.Needs == nil {
		next.Needs = []string{}
	}
	return next
}

func emit(onEvent func(ChatEvent), ev ChatEvent) {
	if onEvent != nil {
		onEvent(ev)
	}
}
