package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// ErrorCategory is one of the user-facing error classes.
type ErrorCategory int

const (
	CategoryUnexpected ErrorCategory = iota
	CategoryConfiguration
	CategoryAuthentication
	CategoryRateLimit
	CategoryQuota
	CategoryModelUnavailable
	CategoryInvalidRequest
	CategoryMessageTooLong
	CategoryInvalidContent
	CategorySafetyBlocked
	CategoryPolicyBlocked
	CategoryServer
	CategoryNetwork
	CategoryTimeout
)

// ContactSuggestion is appended to messages for failures the visitor cannot
// fix by retrying.
const ContactSuggestion = "If this keeps happening, feel free to reach out to me directly through the contact section."

var categoryMessages = map[ErrorCategory]string{
	CategoryUnexpected:       "**Unexpected Error**: Something went wrong while generating a response. " + ContactSuggestion,
	CategoryConfiguration:    "**Configuration Error**: API key not configured. Please set the `GEMINI_API_KEY` environment variable.",
	CategoryAuthentication:   "**Authentication Error**: Invalid API key. Please check the Gemini API key configuration.",
	CategoryRateLimit:        "**Rate Limit Exceeded**: Too many requests. Please wait a moment and try again.",
	CategoryQuota:            "**API Quota Exceeded**: The daily usage limit has been reached. Please try again later.",
	CategoryModelUnavailable: "**Service Unavailable**: The chat model may have expired or is unavailable right now.",
	CategoryInvalidRequest:   "**Invalid Request**: The request could not be processed. Please try again.",
	CategoryMessageTooLong:   "**Message Too Long**: Your message or conversation is too long. Try a shorter question.",
	CategoryInvalidContent:   "**Invalid Content**: The message contains content that could not be processed.",
	CategorySafetyBlocked:    "**Content Blocked**: The response was blocked by safety filters. Please rephrase your question.",
	CategoryPolicyBlocked:    "**Content Blocked**: The request was blocked because it violates the content policy.",
	CategoryServer:           "**Server Error**: The AI service is temporarily unavailable. Please try again later.",
	CategoryNetwork:          "**Network Error**: Unable to connect to the AI service. Please check your connection.",
	CategoryTimeout:          "**Timeout**: The AI service took too long to respond. Please try again.",
}

var categoryStatus = map[ErrorCategory]int{
	CategoryUnexpected:       http.StatusInternalServerError,
	CategoryConfiguration:    http.StatusInternalServerError,
	CategoryAuthentication:   http.StatusUnauthorized,
	CategoryRateLimit:        http.StatusTooManyRequests,
	CategoryQuota:            http.StatusTooManyRequests,
	CategoryModelUnavailable: http.StatusNotFound,
	CategoryInvalidRequest:   http.StatusBadRequest,
	CategoryMessageTooLong:   http.StatusBadRequest,
	CategoryInvalidContent:   http.StatusBadRequest,
	CategorySafetyBlocked:    http.StatusBadRequest,
	CategoryPolicyBlocked:    http.StatusBadRequest,
	CategoryServer:           http.StatusBadGateway,
	CategoryNetwork:          http.StatusBadGateway,
	CategoryTimeout:          http.StatusGatewayTimeout,
}

// Message returns the user-facing text for c.
func (c ErrorCategory) Message() string {
	if m, ok := categoryMessages[c]; ok {
		return m
	}
	return categoryMessages[CategoryUnexpected]
}

// Status is the HTTP status used when c is returned from the chat endpoint.
func (c ErrorCategory) Status() int {
	if s, ok := categoryStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Terminal reports whether a failure of this class must not be retried on
// another transport.
func (c ErrorCategory) Terminal() bool {
	switch c {
	case CategoryConfiguration, CategoryAuthentication, CategoryRateLimit, CategoryQuota:
		return true
	}
	return false
}

// IsFormatted reports whether msg is already a user-facing message.
func IsFormatted(msg string) bool {
	if !strings.HasPrefix(msg, "**") {
		return false
	}
	return strings.Contains(msg[2:], "**:")
}

type keywordRule struct {
	category ErrorCategory
	keywords []string
}

// Order matters: the first rule with a matching keyword wins.
var keywordRules = []keywordRule{
	{CategoryQuota, []string{"quota", "insufficient", "exhausted", "billing"}},
	{CategoryRateLimit, []string{"rate limit", "rate-limit", "ratelimit", "too many"}},
	{CategoryTimeout, []string{"timeout", "timed out", "deadline"}},
	{CategoryNetwork, []string{"network", "connection", "dial tcp", "no such host", "fetch"}},
	{CategoryAuthentication, []string{"api key", "authentication", "unauthorized", "permission"}},
	{CategoryPolicyBlocked, []string{"policy", "prohibited", "blocklist"}},
	{CategorySafetyBlocked, []string{"safety", "blocked"}},
	{CategoryMessageTooLong, []string{"token", "length", "too long"}},
	{CategoryModelUnavailable, []string{"model"}},
}

// sniff matches raw against the keyword rules, case-insensitively.
func sniff(raw string) (ErrorCategory, bool) {
	lower := strings.ToLower(raw)
	if lower == "" {
		return CategoryUnexpected, false
	}
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category, true
			}
		}
	}
	return CategoryUnexpected, false
}

// Categorize maps an HTTP status (0 when there was no response) and a raw
// provider message to a category. Status takes priority over the message.
func Categorize(status int, raw string) ErrorCategory {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryAuthentication
	case status == http.StatusTooManyRequests:
		if c, ok := sniff(raw); ok && c == CategoryQuota {
			return CategoryQuota
		}
		return CategoryRateLimit
	case status == http.StatusNotFound:
		return CategoryModelUnavailable
	case status == http.StatusRequestTimeout:
		return CategoryTimeout
	case status == http.StatusBadRequest || status == http.StatusRequestEntityTooLarge:
		if status == http.StatusRequestEntityTooLarge {
			return CategoryMessageTooLong
		}
		// Gemini reports a bad API key as 400 INVALID_ARGUMENT.
		switch c, _ := sniff(raw); c {
		case CategoryAuthentication, CategoryMessageTooLong, CategorySafetyBlocked, CategoryPolicyBlocked:
			return c
		}
		if strings.Contains(strings.ToLower(raw), "content") {
			return CategoryInvalidContent
		}
		return CategoryInvalidRequest
	case status >= 500:
		return CategoryServer
	}

	c, _ := sniff(raw)
	return c
}

// Classify returns the user-facing message for a failure. Messages that are
// already formatted pass through unchanged.
func Classify(status int, raw string) string {
	if IsFormatted(raw) {
		return raw
	}
	return Categorize(status, raw).Message()
}

// CategorizeError maps a Go error from the transport layer to a category.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return CategoryUnexpected
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	return Categorize(0, err.Error())
}

// ClassifyError returns the user-facing message for err.
func ClassifyError(err error) string {
	if err != nil && IsFormatted(err.Error()) {
		return err.Error()
	}
	return CategorizeError(err).Message()
}
