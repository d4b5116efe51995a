package models

import "encoding/json"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	UserMessage         *string       `json:"userMessage"`
	ConversationHistory []ChatMessage `json:"conversationHistory,omitempty"`

	// Set from the query string, never decoded from the body.
	SkipStreaming bool `json:"-"`
}

// Message returns the user message or "" when absent.
func (r *ChatRequest) Message() string {
	if r.UserMessage == nil {
		return ""
	}
	return *r.UserMessage
}

// ChatResponse is the single-shot reply body: exactly one field is set.
type ChatResponse struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StreamEvent is one record of the normalized event stream. It is a chunk,
// a done marker, or an error; MarshalJSON writes only the fields of that kind.
type StreamEvent struct {
	Chunk       string `json:"chunk,omitempty"`
	Accumulated string `json:"accumulated,omitempty"`
	Done        bool   `json:"done,omitempty"`
	Content     string `json:"content,omitempty"`
	Error       string `json:"error,omitempty"`
}

func ChunkEvent(chunk, accumulated string) StreamEvent {
	return StreamEvent{Chunk: chunk, Accumulated: accumulated}
}

func DoneEvent(content string) StreamEvent {
	return StreamEvent{Done: true, Content: content}
}

func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Error: message}
}

// IsTerminal reports whether no further events follow this one.
func (e StreamEvent) IsTerminal() bool {
	return e.Done || e.Error != ""
}

func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch {
	case e.Error != "":
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Error})
	case e.Done:
		// content is always present, even when empty
		return json.Marshal(struct {
			Done    bool   `json:"done"`
			Content string `json:"content"`
		}{true, e.Content})
	default:
		return json.Marshal(struct {
			Chunk       string `json:"chunk"`
			Accumulated string `json:"accumulated"`
		}{e.Chunk, e.Accumulated})
	}
}
