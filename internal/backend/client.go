// Package backend is the HTTP client for the VRoom recommendation backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vroom/internal/config"
	"vroom/internal/model"
	"vroom/internal/utils"

	"github.com/rs/zerolog"
)

// ErrTimeout is returned when the client-side deadline expires before the backend answers
var ErrTimeout = errors.New("backend request timed out")

// HTTPError is a non-2xx answer from the backend
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Detail)
}

const maxDetailLen = 500

// Client talks JSON over HTTP to the recommendation backend
type Client struct {
	baseURL          string
	httpClient       *http.Client
	recommendTimeout time.Duration
	chatTimeout      time.Duration
	metaTimeout      time.Duration
	logger           zerolog.Logger
}

// NewClient creates a backend client from configuration
func NewClient(cfg *config.BackendConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:       &http.Client{},
		recommendTimeout: cfg.RecommendTimeoutDuration(),
		chatTimeout:      cfg.ChatTimeoutDuration(),
		metaTimeout:      cfg.MetaTimeoutDuration(),
		logger:           logger.With().Str("component", "backend").Logger(),
	}
}

// BaseURL returns the backend root the client is pointed at
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetMeta fetches GET /meta, bypassing any HTTP cache
func (c *Client) GetMeta(ctx context.Context) (*model.MetaResponse, error) {
	var meta model.MetaResponse
	if err := c.do(ctx, http.MethodGet, "/meta", nil, c.metaTimeout, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Recommend posts criteria to /recommendations. There is no retry: a failed
// or timed out request is reported to the caller as is.
func (c *Client) Recommend(ctx context.Context, req *model.RecommendRequest) (*model.RecommendResponse, error) {
	var resp model.RecommendResponse
	if err := c.do(ctx, http.MethodPost, "/recommendations", req, c.recommendTimeout, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chat posts a single conversational turn to /chat
func (c *Client) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatReply, error) {
	var reply model.ChatReply
	if err := c.do(ctx, http.MethodPost, "/chat", req, c.chatTimeout, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, timeout time.Duration, out any) error {
	startTime := time.Now()

	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodGet {
		httpReq.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.classify(ctx, reqCtx, method, path, startTime, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.classify(ctx, reqCtx, method, path, startTime, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{Status: resp.StatusCode, Detail: errorDetail(resp.StatusCode, respBody)}
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(startTime)).
			Msg("backend returned an error status")
		return httpErr
	}

	if err := utils.DecodeLenient(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(startTime)).
		Msg("backend call finished")
	return nil
}

// classify turns a transport error into ErrTimeout when our own deadline fired.
// Cancellation by the caller is passed through untouched.
func (c *Client) classify(parent, reqCtx context.Context, method, path string, startTime time.Time, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%s %s: %w", method, path, parent.Err())
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Dur("elapsed", time.Since(startTime)).
			Msg("backend call timed out")
		return ErrTimeout
	}
	c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("backend call failed")
	return err
}

// errorDetail is the trimmed response body, or "HTTP <status>" when it is empty
func errorDetail(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("HTTP %d", status)
	}
	return truncate(text)
}

func truncate(s string) string {
	if len(s) <= maxDetailLen {
		return s
	}
	return s[:maxDetailLen] + "..."
}
