package client

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
)

var (
	// ErrContentBlocked is returned when the model refused or filtered the reply.
	ErrContentBlocked = errors.New("content blocked by provider")
	// ErrEmptyResponse is returned when the provider answered without a usable choice.
	ErrEmptyResponse = errors.New("empty response from provider")
)

// Client provides a unified interface for making AI requests.
type Client interface {
	Chat() ChatCompletions
}

// ChatCompletions provides chat completion methods.
type ChatCompletions interface {
	// New performs a single completion attempt. Failures are classified as
	// apperr.ErrTransient or apperr.ErrPermanentService.
	New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}
