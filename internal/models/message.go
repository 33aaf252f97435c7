package models

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn handed to the generation provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the assistant answer returned to the client.
type ChatReply struct {
	Reply string `json:"reply"`
}
