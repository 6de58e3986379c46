package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/geospice/internal/common"
	"github.com/Veraticus/geospice/internal/llm"
	"github.com/spf13/viper"
)

// createChatClient builds the configured model provider. API keys come from
// the config file first, then the provider's usual environment variable.
func createChatClient() (llm.ChatClient, error) {
	cfg := llm.Config{
		Provider:  viper.GetString("llm.provider"),
		Model:     viper.GetString("llm.model"),
		BaseURL:   viper.GetString("llm.base_url"),
		Timeout:   viper.GetDuration("llm.timeout"),
		MaxTokens: viper.GetInt("llm.max_tokens"),
	}

	var keyName, envName string
	switch cfg.Provider {
	case "openai":
		keyName, envName = "llm.openai_api_key", "OPENAI_API_KEY"
	case "anthropic":
		keyName, envName = "llm.anthropic_api_key", "ANTHROPIC_API_KEY"
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", common.ErrInvalidConfig, cfg.Provider)
	}

	cfg.APIKey = viper.GetString(keyName)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(envName)
	}
	if cfg.APIKey == "" {
		return nil, common.NewUserError(
			fmt.Sprintf("No %s API key found; set %s or %s in the config file", cfg.Provider, envName, keyName),
			common.ErrMissingConfig)
	}

	client, err := llm.NewChatClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}
