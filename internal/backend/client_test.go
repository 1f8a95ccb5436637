package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vroom/internal/config"
	"vroom/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.BackendConfig{
		BaseURL:          srv.URL + "/",
		RecommendTimeout: 20,
		ChatTimeout:      20,
		MetaTimeout:      5,
		TopN:             18,
	}
	return NewClient(cfg, zerolog.Nop())
}

func TestGetMeta_DecodesBothFuelShapes(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		codes []model.FuelCode
	}{
		{
			name:  "objects",
			body:  `{"brands":["Toyota"],"fuels":[{"code":"g","label":"Bensin"},{"code":"e","label":"BEV"}],"needs":[],"data_ready":{"specs":true,"retail":false,"wholesale":true}}`,
			codes: []model.FuelCode{"g", "e"},
		},
		{
			name:  "label strings",
			body:  `{"brands":["Toyota"],"fuels":["Bensin","BEV"],"needs":[],"data_ready":{"specs":true,"retail":false,"wholesale":true}}`,
			codes: []model.FuelCode{"", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/meta", r.URL.Path)
				assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
				_, _ = io.WriteString(w, tt.body)
			})

			meta, err := client.GetMeta(context.Background())
			require.NoError(t, err)
			require.Len(t, meta.Fuels, 2)
			assert.Equal(t, tt.codes[0], meta.Fuels[0].Code)
			assert.Equal(t, "Bensin", meta.Fuels[0].Label)
			assert.Equal(t, "BEV", meta.Fuels[1].Label)
			assert.True(t, meta.DataReady.Specs)
			assert.False(t, meta.DataReady.Retail)
			assert.True(t, meta.DataReady.Wholesale)
		})
	}
}

func TestRecommend_SendsBodyAndDecodesResponse(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommendations", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"count":0,"items":[],"hint":{"reason":"BUDGET_TOO_LOW","suggested_budget":350000000.0}}`)
	})

	resp, err := client.Recommend(context.Background(), &model.RecommendRequest{
		Budget: 300000000,
		TopN:   18,
		Needs:  []string{"keluarga"},
		Filters: model.Filters{
			Fuels: []model.FuelCode{"g", "h"},
		},
	})
	require.NoError(t, err)

	filters, ok := got["filters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"g", "h"}, filters["fuels"])
	assert.NotContains(t, filters, "trans_choice")
	assert.NotContains(t, filters, "brand")
	assert.Equal(t, float64(300000000), got["budget"])

	assert.Equal(t, 0, resp.Count)
	require.NotNil(t, resp.Hint)
	assert.Equal(t, model.HintBudgetTooLow, resp.Hint.Reason)
	require.NotNil(t, resp.Hint.SuggestedBudget)
	assert.Equal(t, 350000000.0, *resp.Hint.SuggestedBudget)
}

func TestRecommend_ToleratesNaN(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":1,"items":[{"brand":"Toyota","model":"Avanza","price":250000000,"fit_score":NaN}]}`)
	})

	resp, err := client.Recommend(context.Background(), &model.RecommendRequest{Budget: 1, TopN: 1})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 0.0, resp.Items[0].FitScore)
}

func TestRecommend_HTTPErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "json body shown as is", status: 422, body: `{"detail":"budget harus > 0"}`, want: `{"detail":"budget harus > 0"}`},
		{name: "plain text", status: 500, body: "Internal Server Error", want: "Internal Server Error"},
		{name: "surrounding whitespace trimmed", status: 503, body: "\n  sedang maintenance \n", want: "sedang maintenance"},
		{name: "whitespace only", status: 504, body: "  \n", want: "HTTP 504"},
		{name: "empty body", status: 502, body: "", want: "HTTP 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Recommend(context.Background(), &model.RecommendRequest{})
			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.want, httpErr.Detail)
		})
	}
}

func TestRecommend_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client.recommendTimeout = 50 * time.Millisecond

	_, err := client.Recommend(context.Background(), &model.RecommendRequest{})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRecommend_CallerCancelIsNotTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := client.Recommend(ctx, &model.RecommendRequest{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChat_SendsStateAndKind(t *testing.T) {
	var got model.ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"reply":"ok","state":{"needs":["keluarga"],"filters":{},"step":"ask_budget"},"parsed_constraints":{"budget":"300000000","needs":["keluarga"],"filters":{}}}`)
	})

	budget := 300000000.0
	reply, err := client.Chat(context.Background(), &model.ChatRequest{
		Message: "halo",
		State:   &model.ConversationState{Budget: &budget, Needs: []string{"fun"}},
		Kind:    model.KindAnalysis,
		Subject: &model.AnalysisSubject{Brand: "Honda", Model: "Brio"},
	})
	require.NoError(t, err)

	assert.Equal(t, "halo", got.Message)
	require.NotNil(t, got.State)
	assert.Equal(t, []string{"fun"}, got.State.Needs)
	assert.Equal(t, model.KindAnalysis, got.Kind)
	require.NotNil(t, got.Subject)
	assert.Equal(t, "Brio", got.Subject.Model)

	assert.Equal(t, "ok", reply.Reply)
	require.NotNil(t, reply.State)
	assert.Equal(t, "ask_budget", reply.State.Step)
	require.NotNil(t, reply.ParsedConstraints)
	assert.Equal(t, model.FlexNumber(300000000), reply.ParsedConstraints.Budget)
}
