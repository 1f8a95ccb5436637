package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"vroom/internal/backend"
	"vroom/internal/model"

	"github.com/rs/zerolog"
)

// User-facing failure messages for the recommendation exchange
const (
	MsgTimeout = "Permintaan timeout. Coba lagi atau perkecil filter."
	MsgGeneric = "Terjadi kesalahan"
)

// ErrSuperseded is returned to a submit that was cancelled by a newer submit
// for the same session. Its result must not be shown.
var ErrSuperseded = errors.New("recommendation request superseded")

// DefaultTopN is the result size requested when none is configured
const DefaultTopN = 18

type inflight struct {
	cancel     context.CancelFunc
	superseded bool
}

// RecommendService runs the criteria to results exchange. At most one
// request is in flight per session; a new submit cancels the previous one.
type RecommendService struct {
	client Recommender
	topN   int
	logger zerolog.Logger

	mu       sync.Mutex
	inflight map[string]*inflight
}

// NewRecommendService creates the exchange service
func NewRecommendService(client Recommender, topN int, logger zerolog.Logger) *RecommendService {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &RecommendService{
		client:   client,
		topN:     topN,
		logger:   logger.With().Str("component", "recommend").Logger(),
		inflight: make(map[string]*inflight),
	}
}

// Submit sends criteria to the backend and returns its response. The call is
// made exactly once; there is no retry.
func (s *RecommendService) Submit(ctx context.Context, sessionID string, criteria model.Criteria) (*model.RecommendResponse, error) {
	ctx, cancel := context.WithCancel(ctx)
	pending := s.begin(sessionID, cancel)
	defer s.finish(sessionID, pending)

	req := &model.RecommendRequest{
		Budget:  criteria.Budget,
		TopN:    s.topN,
		Needs:   criteria.Needs,
		Filters: criteria.Filters,
	}

	start := time.Now()
	resp, err := s.client.Recommend(ctx, req)
	elapsed := time.Since(start)

	if s.superseded(pending) {
		s.logger.Debug().Str("session", sessionID).Msg("discarding superseded recommendation")
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("session", sessionID).
			Int64("budget", criteria.Budget).
			Strs("needs", criteria.Needs).
			Dur("elapsed", elapsed).
			Msg("recommendation failed")
		return nil, err
	}

	s.logger.Info().
		Str("session", sessionID).
		Int64("budget", criteria.Budget).
		Strs("needs", criteria.Needs).
		Int("count", resp.Count).
		Int("items", len(resp.Items)).
		Dur("elapsed", elapsed).
		Msg("recommendation received")
	return resp, nil
}

func (s *RecommendService) begin(sessionID string, cancel context.CancelFunc) *inflight {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.inflight[sessionID]; ok {
		prev.superseded = true
		prev.cancel()
	}
	cur := &inflight{cancel: cancel}
	s.inflight[sessionID] = cur
	return cur
}

func (s *RecommendService) finish(sessionID string, req *inflight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req.cancel()
	if s.inflight[sessionID] == req {
		delete(s.inflight, sessionID)
	}
}

func (s *RecommendService) superseded(req *inflight) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return req.superseded
}

// UserMessage maps an exchange error to the message shown in place of results
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, backend.ErrTimeout) {
		return MsgTimeout
	}
	var httpErr *backend.HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail != "" {
		return httpErr.Detail
	}
	return MsgGeneric
}
