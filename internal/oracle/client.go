package oracle

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"horse.fit/localwire/internal/config"
)

// ErrUnavailable is returned for calls made while no provider is configured.
var ErrUnavailable = errors.New("oracle unavailable")

// Client wraps the chat provider and the embedder. A nil provider or embedder
// puts that half of the client in the unavailable state; every helper then
// returns its neutral answer without a network call.
type Client struct {
	chat     Provider
	embedder *Embedder
	log      zerolog.Logger
}

// New builds a client from process configuration.
func New(cfg *config.Config, logger zerolog.Logger) *Client {
	return NewClient(NewProvider(cfg), NewEmbedder(cfg), logger)
}

func NewClient(provider Provider, embedder *Embedder, logger zerolog.Logger) *Client {
	return &Client{
		chat:     provider,
		embedder: embedder,
		log:      logger.With().Str("component", "oracle").Logger(),
	}
}

// Available reports whether chat calls can be made.
func (c *Client) Available() bool {
	return c != nil && c.chat != nil
}

// EmbeddingsAvailable reports whether Embed can reach an embedder.
func (c *Client) EmbeddingsAvailable() bool {
	return c != nil && c.embedder != nil
}

// ProviderName is "" when unavailable.
func (c *Client) ProviderName() string {
	if !c.Available() {
		return ""
	}
	return c.chat.Name()
}

func (c *Client) complete(ctx context.Context, req ChatRequest) (string, error) {
	if !c.Available() {
		return "", ErrUnavailable
	}
	reply, err := c.chat.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	return reply, nil
}
