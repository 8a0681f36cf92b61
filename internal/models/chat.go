package models

import "time"

// Role identifies who authored a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single entry of the append-only chat transcript.
type ChatMessage struct {
	Role   Role      `json:"role" msgpack:"role"`
	Text   string    `json:"text" msgpack:"text"`
	SentAt time.Time `json:"sentAt" msgpack:"sentAt"`
}

// ChatRequest is the body sent to the chat endpoint.
type ChatRequest struct {
	Question string `json:"question"`
}

// ChatResponse is the body returned by the chat endpoint.
type ChatResponse struct {
	Response *string `json:"response"`
}
