package llm

import (
	"fmt"
	"strings"
)

// NewChatClient creates a provider client based on the configuration.
func NewChatClient(cfg Config) (ChatClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
