package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmission(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		wantID     string
		wantEvent  string
		wantErrMsg string
	}{
		{
			name:      "fields",
			fields:    map[string]string{"submissionId": " 42 ", "eventId": "7"},
			wantID:    "42",
			wantEvent: "7",
		},
		{
			name:      "json payload",
			fields:    map[string]string{"payload": `{"submissionId":"abc","eventId":"e1"}`},
			wantID:    "abc",
			wantEvent: "e1",
		},
		{
			name:       "missing submission id",
			fields:     map[string]string{"eventId": "7"},
			wantErrMsg: "missing submissionId",
		},
		{
			name:       "broken payload",
			fields:     map[string]string{"payload": `{"submissionId":`},
			wantErrMsg: "failed to decode payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParseSubmission(&StreamMessage{ID: "1-0", Fields: tt.fields})
			if tt.wantErrMsg != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidMessage)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, msg.SubmissionID)
			assert.Equal(t, tt.wantEvent, msg.EventID)
		})
	}
}
