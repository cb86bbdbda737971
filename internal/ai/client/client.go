package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/setup/config"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// AIClient implements the Client interface.
type AIClient struct {
	client    *openai.Client
	breaker   *gobreaker.CircuitBreaker
	semaphore *semaphore.Weighted
	logger    *zap.Logger
}

// NewClient creates a new AIClient.
func NewClient(cfg *config.OpenAI, breakerCfg *config.CircuitBreaker, logger *zap.Logger) *AIClient {
	logger = logger.Named("ai_client")

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(time.Duration(cfg.RequestTimeout)*time.Second),
		option.WithMaxRetries(0),
	)

	// Create circuit breaker settings
	settings := gobreaker.Settings{
		Name:        "openai",
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    time.Duration(breakerCfg.Interval) * time.Second,
		Timeout:     time.Duration(breakerCfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Refusals and cancellations say nothing about provider health
			return err == nil ||
				errors.Is(err, ErrContentBlocked) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &AIClient{
		client:    &client,
		breaker:   gobreaker.NewCircuitBreaker(settings),
		semaphore: semaphore.NewWeighted(maxConcurrent),
		logger:    logger,
	}
}

// Chat returns a ChatCompletions implementation.
func (c *AIClient) Chat() ChatCompletions {
	return &chatCompletions{client: c}
}

// chatCompletions implements the ChatCompletions interface.
type chatCompletions struct {
	client *AIClient
}

// New makes a single chat completion request.
func (c *chatCompletions) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	// Try to acquire semaphore
	if err := c.client.semaphore.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire semaphore: %w", err)
	}
	defer c.client.semaphore.Release(1)

	// Execute request
	result, err := c.client.breaker.Execute(func() (any, error) {
		resp, err := c.client.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, err
		}
		if bl := c.checkBlockReasons(resp, params.Model); bl != nil {
			return nil, bl
		}
		return resp, nil
	})
	if err != nil {
		classified := classify(ctx, err)
		c.client.logger.Warn("Failed to make request",
			zap.Error(err),
			zap.String("model", params.Model),
			zap.Bool("transient", errors.Is(classified, apperr.ErrTransient)))
		return nil, classified
	}

	return result.(*openai.ChatCompletion), nil
}

// checkBlockReasons checks if the response was blocked by content filtering.
func (c *chatCompletions) checkBlockReasons(resp *openai.ChatCompletion, model string) error {
	if resp == nil || len(resp.Choices) == 0 {
		c.client.logger.Warn("Received empty choices", zap.String("model", model))
		return ErrEmptyResponse
	}

	finishReason := resp.Choices[0].FinishReason
	switch finishReason {
	case "stop", "length":
	case "content_filter":
		c.client.logger.Warn("Content blocked",
			zap.String("model", model),
			zap.String("finishReason", finishReason))
		return ErrContentBlocked
	default:
		c.client.logger.Debug("Unexpected finish reason",
			zap.String("model", model),
			zap.String("finishReason", finishReason))
	}

	if resp.Choices[0].Message.Content == "" {
		if resp.Choices[0].Message.Refusal != "" {
			return fmt.Errorf("%w: %s", ErrContentBlocked, resp.Choices[0].Message.Refusal)
		}
		return ErrEmptyResponse
	}

	return nil
}
