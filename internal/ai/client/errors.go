package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/sony/gobreaker"
)

// classify marks a provider failure as transient or permanent. Errors caused
// by the caller's context are returned unchanged.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out: %w", apperr.ErrTransient, err)
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: circuit open: %w", apperr.ErrPermanentService, err)
	case errors.Is(err, ErrContentBlocked):
		return fmt.Errorf("%w: %w", apperr.ErrPermanentService, err)
	case errors.Is(err, ErrEmptyResponse):
		return fmt.Errorf("%w: %w", apperr.ErrTransient, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if isPermanentStatus(apiErr) {
			return fmt.Errorf("%w: %w", apperr.ErrPermanentService, err)
		}
		return fmt.Errorf("%w: %w", apperr.ErrTransient, err)
	}

	// Network failures and anything unexpected are worth another attempt
	return fmt.Errorf("%w: %w", apperr.ErrTransient, err)
}

// isPermanentStatus reports whether an API error will fail the same way on retry.
func isPermanentStatus(apiErr *openai.Error) bool {
	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		// Rate limits pass, an exhausted quota does not
		return apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota"
	case apiErr.StatusCode == http.StatusRequestTimeout, apiErr.StatusCode == http.StatusConflict:
		return false
	case apiErr.StatusCode >= 500:
		return false
	default:
		return apiErr.StatusCode >= 400
	}
}
