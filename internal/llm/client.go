package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ChatClient performs one model turn of a tool-augmented conversation.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Role identifies the author of a conversation message.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in the conversation sent to the model.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string     // set on RoleTool messages
	ToolCalls  []ToolCall // set on RoleAssistant messages that requested tools
	IsError    bool       // RoleTool result describes a failed call
}

// ToolCall is a model request to invoke a declared tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolDefinition declares a callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

// ChatRequest is a single model turn.
type ChatRequest struct {
	Messages    []Message
	Tools       []ToolDefinition
	Temperature float64
}

// ChatResponse holds the model's answer for one turn: free text, tool
// requests, or both.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// WantsTools reports whether the model asked for at least one tool call.
func (r ChatResponse) WantsTools() bool {
	return len(r.ToolCalls) > 0
}

// Config holds configuration for an LLM provider.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}
