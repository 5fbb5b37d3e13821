package grading

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/patelhet04/EssayBot-API/internal/models"
)

// Fallback feedback texts. Downstream spreadsheets show these strings
// verbatim, so they are fixed.
const (
	invalidFormatFeedback  = "Invalid response format detected."
	parseErrorFeedback     = "Error parsing response."
	retryExhaustedFeedback = "Fallback response due to JSON error."
)

var (
	ErrInvalidFormat = errors.New("response is not valid text")
	ErrUnparseable   = errors.New("response could not be repaired to JSON")
)

var (
	functionArgPattern   = regexp.MustCompile(`"(?:essay|text)":\s*"([^"]+)"`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([\]}])`)
)

// Repair normalizes one raw model completion into a score/feedback
// pair. It is total: whatever the input, the returned value is usable,
// and a non-nil error means the value is a repair fallback rather than
// the model's own answer. Stages run in order and each is best-effort;
// this is lossy repair, not faithful recovery.
func Repair(raw string) (models.AgentFeedback, error) {
	if !utf8.ValidString(raw) {
		return models.AgentFeedback{Score: 0, Feedback: invalidFormatFeedback}, ErrInvalidFormat
	}

	cleaned := strings.TrimSpace(raw)

	// some models answer with a function-call wrapper instead of the
	// bare JSON; pull the quoted essay/text argument back out
	if strings.Contains(cleaned, "parameters") {
		if match := functionArgPattern.FindStringSubmatch(cleaned); match != nil {
			cleaned = match[1]
		}
	}

	if feedback, ok := parseFeedback(cleaned); ok {
		return feedback, nil
	}

	// peel up to two layers of string-literal encoding; a non-string
	// decode is re-serialized so later stages always see a string
	for i := 0; i < 2; i++ {
		var next any
		if err := json.Unmarshal([]byte(cleaned), &next); err != nil {
			break
		}
		if s, ok := next.(string); ok {
			cleaned = s
			continue
		}
		if data, err := json.Marshal(next); err == nil {
			cleaned = string(data)
		}
		break
	}
	if feedback, ok := parseFeedback(cleaned); ok {
		return feedback, nil
	}

	cleaned = escapeUnescapedQuotes(cleaned)
	cleaned = trailingCommaPattern.ReplaceAllString(cleaned, "${1}")

	if feedback, ok := parseFeedback(cleaned); ok {
		return feedback, nil
	}
	return models.AgentFeedback{Score: 0, Feedback: parseErrorFeedback}, ErrUnparseable
}

// parseFeedback accepts only a JSON object carrying an integer-like
// numeric score and a string feedback. Extra keys are tolerated and
// dropped; a fractional score or a quoted one is rejected.
func parseFeedback(text string) (models.AgentFeedback, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return models.AgentFeedback{}, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return models.AgentFeedback{}, false
	}
	scoreRaw, hasScore := obj["score"]
	feedbackRaw, hasFeedback := obj["feedback"]
	if !hasScore || !hasFeedback {
		return models.AgentFeedback{}, false
	}

	var score float64
	if err := json.Unmarshal(scoreRaw, &score); err != nil {
		return models.AgentFeedback{}, false
	}
	if score != math.Trunc(score) {
		return models.AgentFeedback{}, false
	}
	var feedback string
	if err := json.Unmarshal(feedbackRaw, &feedback); err != nil {
		return models.AgentFeedback{}, false
	}
	return models.AgentFeedback{Score: int(score), Feedback: feedback}, true
}

// escapeUnescapedQuotes escapes every double quote not directly
// preceded by a backslash. The check is one character deep, so a quote
// following an escaped backslash still counts as escaped.
func escapeUnescapedQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	prev := rune(0)
	for _, r := range s {
		if r == '"' && prev != '\\' {
			b.WriteString(`\"`)
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
