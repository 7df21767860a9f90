// Package advisor asks an external text-generation service for schedule
// suggestions and maps its reply onto the same Suggestion shape the rule
// engine produces. The rest of the system works without it.
package advisor

import (
	"context"
	"fmt"
	"strings"
)

// Client sends one system + user prompt pair and returns the reply text.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Supported providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ClientConfig selects and configures a provider.
type ClientConfig struct {
	Provider string
	Model    string
	APIKey   string

	// BaseURL overrides the provider endpoint.
	BaseURL string
}

// NewClient builds the configured provider client. Without an API key it
// returns a nil Client and no error; the Advisor reports API_UNAVAILABLE.
func NewClient(cfg ClientConfig) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown advisor provider %q", cfg.Provider)
	}
}
