package services

import (
	"fmt"

	"folio-backend/internal/models"
)

const (
	DefaultTemperature     = 0.8
	DefaultMaxOutputTokens = 2048
)

// DefaultGenerationConfig is used when none is configured.
func DefaultGenerationConfig() models.GenerationConfig {
	return models.GenerationConfig{
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// modelRole maps a chat role to the provider's role name.
func modelRole(role string) string {
	if role == models.RoleUser {
		return "user"
	}
	return "model"
}

// BuildRequest renders the provider request. On the first turn the persona
// document and the question go into one untagged entry; afterwards every
// history message becomes a tagged entry and the document is not repeated.
// personaName may be empty.
func BuildRequest(userMessage, context, personaName string, history []models.ChatMessage, isFirstTurn bool, cfg models.GenerationConfig) *models.GenerateRequest {
	req := &models.GenerateRequest{GenerationConfig: cfg}

	if isFirstTurn {
		text := fmt.Sprintf("%s\n\nUser question: %s", context, userMessage)
		if personaName != "" {
			text += fmt.Sprintf("\n\nRespond as %s in first person. Be authentic, conversational, and enthusiastic about your work.", personaName)
		}
		req.Contents = []models.Content{{Parts: []models.Part{{Text: text}}}}
		return req
	}

	req.Contents = make([]models.Content, 0, len(history)+1)
	for _, m := range history {
		req.Contents = append(req.Contents, models.Content{
			Role:  modelRole(m.Role),
			Parts: []models.Part{{Text: m.Content}},
		})
	}
	req.Contents = append(req.Contents, models.Content{
		Role:  "user",
		Parts: []models.Part{{Text: userMessage}},
	})
	return req
}
