// Package ai answers group members through a hosted chat-completion model,
// keeping a short per-member conversation history.
package ai

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/robalyx/invitegate/internal/ai/client"
	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/robalyx/invitegate/internal/database/types/enum"
	"github.com/robalyx/invitegate/internal/locale"
	"github.com/robalyx/invitegate/internal/setup/config"
	"github.com/robalyx/invitegate/pkg/utils"
	"go.uber.org/zap"
)

// maxPromptRunes bounds a single member message sent to the model.
const maxPromptRunes = 4000

// History stores the conversation turns of members.
type History interface {
	AddTurn(ctx context.Context, turn *types.ConversationTurn) error
	Window(ctx context.Context, groupID, userID int64, limit int, since time.Time) ([]types.ConversationTurn, error)
}

// Request is a member message addressed to the assistant.
type Request struct {
	GroupID int64
	UserID  int64
	Name    string
	Text    string
}

// Reply is the text to post back in the group.
type Reply struct {
	Text string
	// Fallback is set when the assistant failed and Text is the apology.
	Fallback bool
}

// Responder produces assistant replies.
type Responder struct {
	chat         client.ChatCompletions
	history      History
	texts        *locale.Localizer
	policy       utils.RetryPolicy
	model        string
	systemPrompt string
	maxTokens    int64
	historyLimit int
	retention    time.Duration
	logger       *zap.Logger
}

// NewResponder creates a Responder.
func NewResponder(
	chat client.ChatCompletions,
	history History,
	texts *locale.Localizer,
	cfg *config.OpenAI,
	retry *config.Retry,
	retention time.Duration,
	logger *zap.Logger,
) *Responder {
	logger = logger.Named("ai_responder")

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	policy := RetryPolicy(retry)
	policy.OnRetry = func(attempt uint64, err error, wait time.Duration) {
		logger.Warn("Assistant request failed, retrying",
			zap.Error(err),
			zap.Uint64("attempt", attempt),
			zap.Duration("wait", wait))
	}

	return &Responder{
		chat:         chat,
		history:      history,
		texts:        texts,
		policy:       policy,
		model:        cfg.Model,
		systemPrompt: systemPrompt,
		maxTokens:    cfg.MaxTokens,
		historyLimit: cfg.HistoryLimit,
		retention:    retention,
		logger:       logger,
	}
}

// RetryPolicy converts the retry configuration into a policy.
func RetryPolicy(cfg *config.Retry) utils.RetryPolicy {
	return utils.RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		BaseDelay:      time.Duration(cfg.Delay) * time.Millisecond,
		MaxDelay:       time.Duration(cfg.MaxDelay) * time.Millisecond,
		MaxElapsedTime: time.Duration(cfg.MaxElapsed) * time.Millisecond,
		Jitter:         cfg.Jitter,
	}
}

// Respond answers a member message. Assistant failures produce a fallback
// reply and an error turn instead of an error, so the member always hears back.
// Errors are returned for invalid input, history failures and cancellation.
func (r *Responder) Respond(ctx context.Context, req Request) (*Reply, error) {
	text := utils.TruncateRunes(utils.CompressWhitespacePreserveNewlines(req.Text), maxPromptRunes)
	if text == "" {
		return nil, fmt.Errorf("empty message: %w", apperr.ErrValidation)
	}

	since := time.Now().Add(-r.retention)
	window, err := r.history.Window(ctx, req.GroupID, req.UserID, r.historyLimit, since)
	if err != nil {
		return nil, err
	}
	window = trimWindow(window, r.historyLimit, since)

	if err := r.history.AddTurn(ctx, &types.ConversationTurn{
		GroupID: req.GroupID,
		UserID:  req.UserID,
		Role:    enum.TurnRoleUser,
		Content: text,
	}); err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Messages:    r.buildMessages(window, text),
		Model:       r.model,
		Temperature: openai.Float(0.7),
	}
	if r.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(r.maxTokens)
	}

	content, err := utils.Retry(ctx, r.policy, apperr.IsTransient, func(ctx context.Context) (string, error) {
		resp, err := r.chat.New(ctx, params)
		if err != nil {
			return "", err
		}
		return utils.CompressWhitespacePreserveNewlines(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return r.fallback(ctx, req, err)
	}

	if err := r.history.AddTurn(ctx, &types.ConversationTurn{
		GroupID: req.GroupID,
		UserID:  req.UserID,
		Role:    enum.TurnRoleAssistant,
		Content: content,
	}); err != nil {
		// The reply is still worth delivering
		r.logger.Error("Failed to store assistant turn",
			zap.Error(err),
			zap.Int64("groupID", req.GroupID),
			zap.Int64("userID", req.UserID),
			zap.String("operation", "add_turn"))
	}

	return &Reply{Text: address(req.Name, content)}, nil
}

// fallback records the failed exchange and builds the apology reply.
func (r *Responder) fallback(ctx context.Context, req Request, cause error) (*Reply, error) {
	r.logger.Error("Assistant request failed",
		zap.Error(cause),
		zap.Int64("groupID", req.GroupID),
		zap.Int64("userID", req.UserID),
		zap.String("operation", "respond"),
		zap.Bool("exhausted", errors.Is(cause, utils.ErrAttemptsExhausted)))

	text := r.texts.Text(locale.KeyAIError)

	if err := r.history.AddTurn(ctx, &types.ConversationTurn{
		GroupID: req.GroupID,
		UserID:  req.UserID,
		Role:    enum.TurnRoleAssistant,
		Content: text,
		IsError: true,
	}); err != nil {
		r.logger.Error("Failed to store error turn",
			zap.Error(err),
			zap.Int64("groupID", req.GroupID),
			zap.Int64("userID", req.UserID),
			zap.String("operation", "add_turn"))
	}

	return &Reply{Text: address(req.Name, text), Fallback: true}, nil
}

// buildMessages turns the history window and the new message into the prompt.
func (r *Responder) buildMessages(window []types.ConversationTurn, text string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(window)+2)
	messages = append(messages, openai.SystemMessage(r.systemPrompt))

	for _, turn := range window {
		switch turn.Role {
		case enum.TurnRoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case enum.TurnRoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}

	return append(messages, openai.UserMessage(text))
}

// trimWindow keeps the successful turns newer than since, oldest first, at
// most limit of them.
func trimWindow(turns []types.ConversationTurn, limit int, since time.Time) []types.ConversationTurn {
	kept := make([]types.ConversationTurn, 0, len(turns))
	for _, turn := range turns {
		if !turn.IsError && turn.CreatedAt.After(since) {
			kept = append(kept, turn)
		}
	}

	slices.SortStableFunc(kept, func(a, b types.ConversationTurn) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}

	return kept
}

// address prefixes a reply with the name of the member it answers.
func address(name, text string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return text
	}
	return name + ", " + text
}
