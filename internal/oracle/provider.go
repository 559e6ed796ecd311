package oracle

import (
	"context"
	"strings"

	"horse.fit/localwire/internal/config"
)

// ChatRequest is a single-turn prompt. Schema, when set, is a JSON schema
// the provider should constrain its reply to.
type ChatRequest struct {
	System    string
	Prompt    string
	MaxTokens int
	Schema    string
}

// Provider is one chat backend.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// NewProvider picks the chat provider named by cfg.OracleProvider. It
// returns nil when the provider has no credential, which leaves the client
// unavailable.
func NewProvider(cfg *config.Config) Provider {
	if cfg == nil {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(cfg.OracleProvider)) {
	case ProviderAnthropic:
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			return nil
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	default:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil
		}
		return NewOpenAIProvider(cfg.ChatEndpoint, cfg.ChatModel, cfg.OpenAIAPIKey, cfg.OracleRequestTimeout)
	}
}

// NewEmbedder returns nil without an OpenAI credential.
func NewEmbedder(cfg *config.Config) *Embedder {
	if cfg == nil || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil
	}
	return NewOpenAIEmbedder(cfg.EmbeddingEndpoint, cfg.EmbeddingModel, cfg.OpenAIAPIKey, cfg.OracleRequestTimeout)
}
