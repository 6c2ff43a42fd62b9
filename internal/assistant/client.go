package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mysticbob/nochickenleftbehind/internal/config"
	"github.com/mysticbob/nochickenleftbehind/internal/metrics"
	"github.com/mysticbob/nochickenleftbehind/internal/reliability"
)

// Client wraps the OpenAI API with app-level retry. The SDK's own retries
// are disabled so backoff policy lives in one place.
type Client struct {
	api openai.Client
	cfg config.OpenAIConfig
}

func NewClient(cfg config.OpenAIConfig) *Client {
	api := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)
	return &Client{api: api, cfg: cfg}
}

// Complete produces an assistant reply for the user's message, given the
// conversation context prompt as the system message.
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	var reply string
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		resp, err := c.api.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.cfg.Model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(userMessage),
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no choices returned")
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	return reply, err
}

// Embed returns an embedding vector for the given text. Satisfies
// recipes.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		resp, err := c.api.Embeddings.New(callCtx, openai.EmbeddingNewParams{
			Model: openai.EmbeddingModelTextEmbedding3Small,
			Input: openai.EmbeddingNewParamsInputUnion{
				OfString: openai.String(text),
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("no embedding returned")
		}
		raw := resp.Data[0].Embedding
		vector = make([]float32, len(raw))
		for i, v := range raw {
			vector[i] = float32(v)
		}
		return nil
	})
	return vector, err
}

// withRetry runs fn with a per-call timeout, retrying transient failures
// with doubling backoff up to cfg.MaxRetries additional attempts.
func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.AssistantLLMRetries.Inc()
			if err := sleepCtx(ctx, reliability.Backoff(attempt-1, c.cfg.RetryBase, c.cfg.RetryCap)); err != nil {
				return err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("llm call failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return reliability.IsRetryableStatus(apiErr.StatusCode)
	}
	return reliability.IsRetryableError(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
