package ai

import (
	"encoding/json"
	"reflect"
	"testing"

	"kareerbot/internal/errors"
	"kareerbot/internal/types"
)

const validFeedbackJSON = `{"strengths": ["Clear summary", "Strong metrics", "Good layout"],` +
	` "improvements": ["Add keywords", "Quantify impact", "Trim to one page"]}`

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no fence",
			in:   `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "bare fence",
			in:   "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "preamble before fence",
			in:   "Sure, here is the feedback you asked for:\n```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "trailing prose after closing fence",
			in:   "```json\n{\"a\": 1}\n```\nLet me know if you need anything else!",
			want: `{"a": 1}`,
		},
		{
			name: "fence tag glued to payload",
			in:   "```json{\"a\": 1}```",
			want: `{"a": 1}`,
		},
		{
			name: "surrounding whitespace",
			in:   "  \n {\"a\": 1} \n ",
			want: `{"a": 1}`,
		},
		{
			name: "unclosed fence",
			in:   "```json\n{\"a\": 1}",
			want: `{"a": 1}`,
		},
		{
			name: "backticks inside a string value",
			in:   `{"a": "uses ` + "```" + ` fenced snippets well"}`,
			want: `{"a": "uses ` + "```" + ` fenced snippets well"}`,
		},
		{
			name: "fenced payload containing backticks",
			in:   "```json\n{\"a\": \"x ``` y\"}\n```",
			want: `{"a": "x ` + "```" + ` y"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFeedbackValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bare json", validFeedbackJSON},
		{"fenced json", "```json\n" + validFeedbackJSON + "\n```"},
		{"fenced with preamble", "Here you go:\n```json\n" + validFeedbackJSON + "\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feedback, err := ParseFeedback(tt.in)
			if err != nil {
				t.Fatalf("ParseFeedback returned error: %v", err)
			}
			if len(feedback.Strengths) != types.FeedbackArity {
				t.Errorf("expected %d strengths, got %d", types.FeedbackArity, len(feedback.Strengths))
			}
			if len(feedback.Improvements) != types.FeedbackArity {
				t.Errorf("expected %d improvements, got %d", types.FeedbackArity, len(feedback.Improvements))
			}
			if feedback.Strengths[0] != "Clear summary" {
				t.Errorf("unexpected first strength: %q", feedback.Strengths[0])
			}
		})
	}
}

func TestParseFeedbackMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", "I think your resume looks great overall!"},
		{"wrong shape", `{"feedback": "looks good"}`},
		{"two strengths", `{"strengths": ["a", "b"], "improvements": ["x", "y", "z"]}`},
		{"four improvements", `{"strengths": ["a", "b", "c"], "improvements": ["w", "x", "y", "z"]}`},
		{"empty arrays", `{"strengths": [], "improvements": []}`},
		{"missing improvements", `{"strengths": ["a", "b", "c"]}`},
		{"empty reply", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeedback(tt.in)
			if err == nil {
				t.Fatal("expected error for malformed reply")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("expected *errors.AppError, got %T", err)
			}
			if appErr.Code != errors.ErrCodeMalformedReply {
				t.Errorf("expected code %s, got %s", errors.ErrCodeMalformedReply, appErr.Code)
			}
			if _, ok := appErr.Context["raw_reply"]; !ok {
				t.Error("malformed reply error should carry the raw reply for logging")
			}
		})
	}
}

func TestParseFeedbackRoundTrip(t *testing.T) {
	// Serializing valid feedback and parsing it back must yield the same
	// feedback, even when its strings contain Markdown backticks.
	original := types.Feedback{
		Strengths:    []string{"uses ``` fenced snippets well", "Strong metrics", "Good layout"},
		Improvements: []string{"Add keywords", "Quantify impact", "Trim to one page"},
	}

	serialized, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	parsed, err := ParseFeedback(string(serialized))
	if err != nil {
		t.Fatalf("ParseFeedback returned error: %v", err)
	}
	if !reflect.DeepEqual(parsed, original) {
		t.Errorf("round trip changed feedback: got %+v, want %+v", parsed, original)
	}
}

func TestParseFeedbackNeverPadsOrTruncates(t *testing.T) {
	// A near-miss reply must be rejected outright, not coerced into shape.
	in := `{"strengths": ["a", "b", "c", "d"], "improvements": ["x", "y", "z"]}`
	feedback, err := ParseFeedback(in)
	if err == nil {
		t.Fatalf("expected rejection, got feedback %+v", feedback)
	}
}

func TestParseFeedbackRawReplyTruncatedForLogging(t *testing.T) {
	long := make([]byte, rawReplyLimit*2)
	for i := range long {
		long[i] = 'x'
	}

	_, err := ParseFeedback(string(long))
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected *errors.AppError, got %T", err)
	}
	raw, ok := appErr.Context["raw_reply"].(string)
	if !ok {
		t.Fatal("expected raw_reply context entry")
	}
	if len(raw) > rawReplyLimit {
		t.Errorf("raw reply context should be capped at %d bytes, got %d", rawReplyLimit, len(raw))
	}
}
