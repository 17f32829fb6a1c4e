package llm

import (
	"strings"
)

// User-facing messages for classified inference failures. The chat turn
// still completes with one of these as the answer instead of raising to
// the caller.
const (
	MsgAuthFailure    = "Authentication error: Please check your API key configuration."
	MsgQuotaFailure   = "Billing/quota error: Please check your API billing setup."
	MsgModelFailure   = "Model unavailable: The AI model is currently not accessible."
	MsgTimeoutFailure = "Request timed out: The AI service took too long to respond."
)

// ClassifyInferenceError maps an inference error to a best-effort answer
// shown to the user. Classification is by substring matching against the
// known failure modes of the chat-completions providers; anything
// unrecognized degrades to a generic message with a truncated diagnostic.
func ClassifyInferenceError(err error) string {
	if err == nil {
		return ""
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "api key") ||
		strings.Contains(errMsg, "authentication") ||
		strings.Contains(errMsg, "permission") ||
		strings.Contains(errMsg, "unauthorized"):
		return MsgAuthFailure
	case strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "billing"):
		return MsgQuotaFailure
	case strings.Contains(errMsg, "model"):
		return MsgModelFailure
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded"):
		return MsgTimeoutFailure
	default:
		return "I'm having trouble connecting to my AI brain. Error: " + truncate(err.Error(), 100)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
