package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2 * time.Second
	// MinBackoffBase keeps base^attempt non-decreasing.
	MinBackoffBase = time.Second
)

// Poster delivers one rendered message.
type Poster interface {
	Post(ctx context.Context, text string) error
}

type SlackOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	// BackoffBase b waits b^attempt seconds after failed attempt n (0-based):
	// 1s then 2s for the default 2s base.
	BackoffBase time.Duration
	HTTPClient  *http.Client
}

// Slack posts to an incoming webhook.
type Slack struct {
	webhookURL  string
	client      *http.Client
	maxAttempts int
	backoffBase time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	log         zerolog.Logger
}

type slackPayload struct {
	Text string `json:"text"`
}

func NewSlack(webhookURL string, opts SlackOptions, logger zerolog.Logger) *Slack {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	base := opts.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	base = max(base, MinBackoffBase)
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Slack{
		webhookURL:  strings.TrimSpace(webhookURL),
		client:      client,
		maxAttempts: attempts,
		backoffBase: base,
		sleep:       sleepContext,
		log:         logger.With().Str("component", "notify").Logger(),
	}
}

// Post sends text, retrying failed attempts with exponential backoff.
func (s *Slack) Post(ctx context.Context, text string) error {
	body, err := json.Marshal(slackPayload{Text: text})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if lastErr = s.send(ctx, body); lastErr == nil {
			return nil
		}
		s.log.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Int("max_attempts", s.maxAttempts).
			Msg("webhook post failed")

		if attempt == s.maxAttempts-1 {
			break
		}
		if err := s.sleep(ctx, backoff(s.backoffBase, attempt)); err != nil {
			return fmt.Errorf("webhook post interrupted: %w", err)
		}
	}
	return fmt.Errorf("webhook post failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Slack) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func backoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(math.Pow(base.Seconds(), float64(attempt)) * float64(time.Second))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DryRun logs messages instead of posting them.
type DryRun struct {
	log zerolog.Logger
}

func NewDryRun(logger zerolog.Logger) *DryRun {
	return &DryRun{log: logger.With().Str("component", "notify").Logger()}
}

func (d *DryRun) Post(_ context.Context, text string) error {
	d.log.Info().Str("text", text).Msg("dry run: notification not sent")
	return nil
}
