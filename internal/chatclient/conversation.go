package chatclient

import (
	"fmt"
	"strings"

	"folio-backend/internal/models"
	"folio-backend/internal/services"
)

// Greeting is the assistant's opening line. It is shown to the visitor but
// never sent as history.
func Greeting(ownerName string) string {
	if ownerName == "" {
		return "Hi! Feel free to ask me anything about my work, projects, or experience!"
	}
	return fmt.Sprintf("Hi! I'm %s. Feel free to ask me anything about my work, projects, or experience!", ownerName)
}

// Conversation is the client-held history of one chat. It is never
// truncated; pruning happens on the outbound copy only.
type Conversation struct {
	greeting string
	messages []models.ChatMessage
}

func NewConversation(greeting string) *Conversation {
	return &Conversation{greeting: greeting}
}

func (c *Conversation) Greeting() string {
	return c.greeting
}

// Add appends a message. Blank messages are dropped.
func (c *Conversation) Add(role, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	c.messages = append(c.messages, models.ChatMessage{Role: role, Content: content})
}

// History returns a copy of every message after the greeting.
func (c *Conversation) History() []models.ChatMessage {
	return append([]models.ChatMessage(nil), c.messages...)
}

func (c *Conversation) Len() int {
	return len(c.messages)
}

// EstimatedTokens is the rough token count of the full history, for display.
func (c *Conversation) EstimatedTokens() int {
	return services.EstimateTokens(c.messages)
}

// Reset forgets everything but the greeting.
func (c *Conversation) Reset() {
	c.messages = nil
}
