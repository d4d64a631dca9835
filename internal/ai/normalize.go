package ai

import (
	"encoding/json"
	"strings"

	"kareerbot/internal/errors"
	"kareerbot/internal/types"
)

// rawReplyLimit bounds how much of a malformed model reply is attached to the
// error for logging.
const rawReplyLimit = 2048

// StripCodeFences extracts the payload from a model reply that may be wrapped
// in a Markdown code fence. A fence counts as a wrapper only when it starts the
// reply or a line; backticks mid-line belong to the payload. Prose before the
// opening fence is discarded, an optional language tag after the fence is
// skipped, and everything from the last closing fence on is dropped. A reply
// with no fence is returned trimmed.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)

	start := openingFenceIndex(s)
	if start == -1 {
		return s
	}
	s = s[start+3:]

	// Skip a language tag like "json" on the fence line.
	if nl := strings.IndexAny(s, "\r\n"); nl != -1 && isFenceTag(s[:nl]) {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}

	if end := strings.LastIndex(s, "```"); end != -1 {
		s = s[:end]
	}

	return strings.TrimSpace(s)
}

// openingFenceIndex locates a fence at the start of the reply or of a line.
func openingFenceIndex(s string) int {
	if strings.HasPrefix(s, "```") {
		return 0
	}
	if idx := strings.Index(s, "\n```"); idx != -1 {
		return idx + 1
	}
	return -1
}

func isFenceTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return true
	}
	for _, r := range tag {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// ParseFeedback normalizes a raw model reply into structured feedback. The
// reply must decode to JSON with exactly types.FeedbackArity strengths and
// improvements; anything else fails with the raw reply attached for logging,
// never padded or truncated into shape.
func ParseFeedback(raw string) (types.Feedback, error) {
	cleaned := StripCodeFences(raw)

	var feedback types.Feedback
	if err := json.Unmarshal([]byte(cleaned), &feedback); err != nil {
		return types.Feedback{}, malformedReply("AI reply is not valid feedback JSON", raw, err)
	}

	if len(feedback.Strengths) != types.FeedbackArity || len(feedback.Improvements) != types.FeedbackArity {
		return types.Feedback{}, malformedReply("AI reply has the wrong number of feedback entries", raw, nil).
			WithContext("strengths_count", len(feedback.Strengths)).
			WithContext("improvements_count", len(feedback.Improvements))
	}

	return feedback, nil
}

func malformedReply(message, raw string, cause error) *errors.AppError {
	if len(raw) > rawReplyLimit {
		raw = raw[:rawReplyLimit]
	}
	return errors.NewAIError(errors.ErrCodeMalformedReply, message, cause).
		WithContext("raw_reply", raw)
}
