package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradingOptions_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want GradingOptions
	}{
		{
			name: "empty object keeps defaults",
			body: `{}`,
			want: DefaultGradingOptions(),
		},
		{
			name: "partial object",
			body: `{"negative_marking": true, "grade_scale": "pass_fail"}`,
			want: GradingOptions{NegativeMarking: true, NegativePenalty: 0.25, PassingScore: 60, GradeScale: ScalePassFail},
		},
		{
			name: "explicit zero overrides default",
			body: `{"passing_score": 0, "negative_penalty": 0}`,
			want: GradingOptions{GradeScale: ScaleStandard},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got GradingOptions
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGradingOptions_UnmarshalJSON_Invalid(t *testing.T) {
	var got GradingOptions
	assert.Error(t, json.Unmarshal([]byte(`{"passing_score": "high"}`), &got))
}
