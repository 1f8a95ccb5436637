package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"vroom/internal/model"

	"github.com/rs/zerolog"
)

// ErrInvalidForm is returned by Submit when validation blocked the request
var ErrInvalidForm = errors.New("criteria form is incomplete")

// PageState is a snapshot of one session's search page
type PageState struct {
	Form   *Form
	Active *model.RecommendResponse
	Error  string
}

// HasResults reports whether a recommendation response is active
func (p PageState) HasResults() bool {
	return p.Active != nil
}

type pageSession struct {
	mu       sync.Mutex
	form     *Form
	active   *model.RecommendResponse
	errMsg   string
	lastSeen time.Time // guarded by SearchFlow.mu
}

func (s *pageSession) snapshot() PageState {
	return PageState{Form: s.form.Clone(), Active: s.active, Error: s.errMsg}
}

// SearchFlow keeps the form and the active result set for each session and
// moves sessions between the form and the results view.
type SearchFlow struct {
	meta   *MetaService
	rec    *RecommendService
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*pageSession
}

// NewSearchFlow creates the page flow
func NewSearchFlow(meta *MetaService, rec *RecommendService, logger zerolog.Logger) *SearchFlow {
	return &SearchFlow{
		meta:     meta,
		rec:      rec,
		logger:   logger.With().Str("component", "flow").Logger(),
		sessions: make(map[string]*pageSession),
	}
}

func (f *SearchFlow) session(sessionID string) *pageSession {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[sessionID]
	if !ok {
		s = &pageSession{form: NewForm(OptionsFromMeta(f.meta))}
		f.sessions[sessionID] = s
	}
	s.lastSeen = time.Now()
	return s
}

// Landing refetches metadata and returns the form for a session. A failed
// fetch is ignored; the form keeps whatever options it had.
func (f *SearchFlow) Landing(ctx context.Context, sessionID string) PageState {
	_ = f.meta.Refetch(ctx)

	s := f.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.form.ApplyOptions(OptionsFromMeta(f.meta))
	return s.snapshot()
}

// State returns the current snapshot without touching metadata
func (f *SearchFlow) State(sessionID string) PageState {
	s := f.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Update mutates the session's form under its lock
func (f *SearchFlow) Update(sessionID string, fn func(form *Form)) PageState {
	s := f.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.form)
	return s.snapshot()
}

// Replace swaps the session's form for form, as when a whole set of criteria
// arrives at once
func (f *SearchFlow) Replace(sessionID string, form *Form) PageState {
	s := f.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.form = form.Clone()
	return s.snapshot()
}

// Submit validates the form and runs the exchange. A valid submit drops the
// previous result set before calling out; on success the response becomes the
// active one. Validation failures return ErrInvalidForm without any backend
// call; a submit overtaken by a newer one returns ErrSuperseded and leaves the
// slot to the newer call.
func (f *SearchFlow) Submit(ctx context.Context, sessionID string) (PageState, error) {
	s := f.session(sessionID)

	s.mu.Lock()
	if !s.form.Validate() {
		st := s.snapshot()
		s.mu.Unlock()
		return st, ErrInvalidForm
	}
	criteria := s.form.Criteria()
	s.active = nil
	s.errMsg = ""
	s.mu.Unlock()

	// lock is not held across the call so a newer submit can supersede this one
	resp, err := f.rec.Submit(ctx, sessionID, criteria)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case errors.Is(err, ErrSuperseded):
		return s.snapshot(), err
	case err != nil:
		s.errMsg = UserMessage(err)
		return s.snapshot(), err
	}

	s.active = resp
	return s.snapshot(), nil
}

// Adopt makes resp the active result set, as when the assistant recommends
func (f *SearchFlow) Adopt(sessionID string, resp *model.RecommendResponse) {
	if resp == nil {
		return
	}
	s := f.session(sessionID)
	s.mu.Lock()
	s.active = resp
	s.errMsg = ""
	s.mu.Unlock()
}

// Active returns the active result set, if any
func (f *SearchFlow) Active(sessionID string) (*model.RecommendResponse, bool) {
	s := f.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != nil
}

// BackToForm drops the active results, refetches metadata and resets the form
func (f *SearchFlow) BackToForm(ctx context.Context, sessionID string) PageState {
	_ = f.meta.Refetch(ctx)

	s := f.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = nil
	s.errMsg = ""
	s.form.Reset(OptionsFromMeta(f.meta))
	return s.snapshot()
}

// PrefillFromChat copies constraints understood by the assistant into the form
func (f *SearchFlow) PrefillFromChat(sessionID string, pc *model.ParsedConstraints) {
	if pc == nil {
		return
	}
	s := f.session(sessionID)
	s.mu.Lock()
	s.form.Prefill(pc)
	s.mu.Unlock()
}

// Sweep forgets sessions idle for longer than maxIdle and returns how many were dropped
func (f *SearchFlow) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	f.mu.Lock()
	defer f.mu.Unlock()

	dropped := 0
	for id, s := range f.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(f.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		f.logger.Debug().Int("dropped", dropped).Int("remaining", len(f.sessions)).Msg("swept idle page sessions")
	}
	return dropped
}
