package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lenientTarget struct {
	Count int      `json:"count"`
	Score *float64 `json:"score"`
	Note  string   `json:"note"`
}

func TestDecodeLenient(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantNil   bool
		wantNote  string
		wantErr   bool
	}{
		{
			name:      "strict JSON",
			input:     `{"count": 3, "score": 0.5, "note": "ok"}`,
			wantCount: 3,
			wantNote:  "ok",
		},
		{
			name:      "NaN score",
			input:     `{"count": 1, "score": NaN}`,
			wantCount: 1,
			wantNil:   true,
		},
		{
			name:      "negative infinity",
			input:     `{"count": 2, "score": -Infinity}`,
			wantCount: 2,
			wantNil:   true,
		},
		{
			name:      "NaN inside a string is left alone",
			input:     `{"count": 1, "score": NaN, "note": "NaN Infinity"}`,
			wantCount: 1,
			wantNil:   true,
			wantNote:  "NaN Infinity",
		},
		{
			name:      "BOM prefix",
			input:     "\ufeff{\"count\": 4}",
			wantCount: 4,
			wantNil:   true,
		},
		{
			name:      "surrounding text",
			input:     `result: {"count": 5} done`,
			wantCount: 5,
			wantNil:   true,
		},
		{
			name:      "trailing comma",
			input:     `{"count": 6,}`,
			wantCount: 6,
			wantNil:   true,
		},
		{
			name:    "empty",
			input:   "  ",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "<html>bad gateway</html>",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got lenientTarget
			err := DecodeLenient([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, got.Count)
			assert.Equal(t, tt.wantNote, got.Note)
			if tt.wantNil {
				assert.Nil(t, got.Score)
			}
		})
	}
}
