package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicProvider sends prompts through llmkit. llmkit calls are not
// cancellable, so the context is only checked before the call.
type AnthropicProvider struct {
	apiKey string
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultAnthropicModel
	}
	return &AnthropicProvider{apiKey: strings.TrimSpace(apiKey), model: trimmedModel}
}

func (p *AnthropicProvider) Name() string {
	return ProviderAnthropic
}

func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	settings := types.RequestSettings{
		Model:       p.model,
		MaxTokens:   maxTokens,
		Temperature: 0,
	}

	response, err := anthropic.PromptWithSettings(req.System, req.Prompt, req.Schema, p.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("anthropic prompt failed: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in anthropic response")
	}
	return strings.TrimSpace(response.Content[0].Text), nil
}
