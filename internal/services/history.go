package services

import (
	"strings"

	"folio-backend/internal/models"
)

const (
	// MaxHistoryMessages is the sliding window applied before the token cap.
	MaxHistoryMessages = 12
	// MaxHistoryTokens is the estimated token budget for history.
	MaxHistoryTokens = 8000
	// minPrunedMessages is the floor the token cap never goes below.
	minPrunedMessages = 2
)

// EstimateTokens approximates the token count of messages as one token per
// four characters, rounded up.
func EstimateTokens(messages []models.ChatMessage) int {
	chars := 0
	for _, m := range messages {
		chars += len([]rune(m.Content))
	}
	return (chars + 3) / 4
}

// PruneHistory caps history to the most recent MaxHistoryMessages, then drops
// the oldest pair while the estimate exceeds MaxHistoryTokens. The input is
// not modified and the result never shrinks below two messages by the token
// cap.
func PruneHistory(history []models.ChatMessage) []models.ChatMessage {
	start := 0
	if len(history) > MaxHistoryMessages {
		start = len(history) - MaxHistoryMessages
	}
	window := history[start:]

	for len(window)-2 >= minPrunedMessages && EstimateTokens(window) > MaxHistoryTokens {
		window = window[2:]
	}

	out := make([]models.ChatMessage, len(window))
	copy(out, window)
	return out
}

// SanitizeHistory drops messages with an unknown role or blank content.
func SanitizeHistory(history []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
