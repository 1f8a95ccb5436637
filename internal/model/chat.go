package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Message authors
const (
	FromUser = "user"
	FromBot  = "bot"
)

// Message kinds. Analysis requests are tagged structurally rather than by
// markers embedded in the text.
const (
	KindText     = "text"
	KindAnalysis = "analysis"
	KindSystem   = "system"
)

// Message is a single chat log entry
type Message struct {
	From string `json:"from"`
	Text string `json:"text"`
	Kind string `json:"kind,omitempty"`
}

// ConversationState is owned by the backend and echoed back on every turn
type ConversationState struct {
	Budget  *float64 `json:"budget,omitempty"`
	Needs   []string `json:"needs"`
	Filters Filters  `json:"filters"`
	Step    string   `json:"step,omitempty"`
}

// Clone returns a deep copy so a snapshot sent to the backend cannot alias the live state
func (s ConversationState) Clone() ConversationState {
	out := s
	if s.Budget != nil {
		b := *s.Budget
		out.Budget = &b
	}
	out.Needs = append([]string(nil), s.Needs...)
	out.Filters.Fuels = append([]FuelCode(nil), s.Filters.Fuels...)
	return out
}

// AnalysisSubject identifies the vehicle a structured analysis turn is about
type AnalysisSubject struct {
	Brand    string  `json:"brand"`
	Model    string  `json:"model"`
	Price    float64 `json:"price,omitempty"`
	FitScore float64 `json:"fit_score,omitempty"`
	Rank     int     `json:"rank,omitempty"`
}

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message string             `json:"message"`
	State   *ConversationState `json:"state,omitempty"`
	Kind    string             `json:"kind,omitempty"`
	Subject *AnalysisSubject   `json:"subject,omitempty"`
}

// ChatRecommendation is the recommendation payload a chat turn may carry
type ChatRecommendation struct {
	Budget  FlexNumber      `json:"budget"`
	Needs   []string        `json:"needs"`
	Filters Filters         `json:"filters"`
	Count   int             `json:"count"`
	Items   []RecommendItem `json:"items"`
}

// Response converts the chat payload into the shape the results view renders
func (r *ChatRecommendation) Response() *RecommendResponse {
	count := r.Count
	if count == 0 {
		count = len(r.Items)
	}
	return &RecommendResponse{
		Count:  count,
		Items:  r.Items,
		Budget: float64(r.Budget),
		Needs:  r.Needs,
	}
}

// ParsedConstraints is what the backend understood from free text
type ParsedConstraints struct {
	Budget  FlexNumber `json:"budget"`
	Needs   []string   `json:"needs"`
	Filters Filters    `json:"filters"`
}

// ChatReply is the body returned by POST /chat
type ChatReply struct {
	Reply              string              `json:"reply"`
	State              *ConversationState  `json:"state,omitempty"`
	Recommendation     *ChatRecommendation `json:"recommendation,omitempty"`
	ParsedConstraints  *ParsedConstraints  `json:"parsed_constraints,omitempty"`
	SuggestedQuestions []string            `json:"suggested_questions,omitempty"`
}

// FlexNumber decodes a JSON number or a numeric string. Anything else decodes to zero.
type FlexNumber float64

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = FlexNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = FlexNumber(v)
			return nil
		}
		// "300.000.000" style thousands separators
		s = strings.NewReplacer(".", "", ",", "", " ", "", "_", "").Replace(s)
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			*n = FlexNumber(v)
			return nil
		}
	}
	*n = 0
	return nil
}

// FlexString decodes a JSON string or number into its textual form
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*s = FlexString(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	*s = ""
	return nil
}
