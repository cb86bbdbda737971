package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go"
	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func apiError(status int, code string) *openai.Error {
	return &openai.Error{
		StatusCode: status,
		Code:       code,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil),
		Response:   &http.Response{StatusCode: status},
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "unauthorized", err: apiError(http.StatusUnauthorized, "invalid_api_key"), want: apperr.ErrPermanentService},
		{name: "forbidden", err: apiError(http.StatusForbidden, ""), want: apperr.ErrPermanentService},
		{name: "bad request", err: apiError(http.StatusBadRequest, ""), want: apperr.ErrPermanentService},
		{name: "rate limited", err: apiError(http.StatusTooManyRequests, "rate_limit_exceeded"), want: apperr.ErrTransient},
		{name: "quota exhausted", err: apiError(http.StatusTooManyRequests, "insufficient_quota"), want: apperr.ErrPermanentService},
		{name: "server error", err: apiError(http.StatusBadGateway, ""), want: apperr.ErrTransient},
		{name: "request timeout status", err: apiError(http.StatusRequestTimeout, ""), want: apperr.ErrTransient},
		{name: "open circuit", err: gobreaker.ErrOpenState, want: apperr.ErrPermanentService},
		{name: "half open limit", err: gobreaker.ErrTooManyRequests, want: apperr.ErrPermanentService},
		{name: "content blocked", err: ErrContentBlocked, want: apperr.ErrPermanentService},
		{name: "empty response", err: ErrEmptyResponse, want: apperr.ErrTransient},
		{name: "http timeout", err: context.DeadlineExceeded, want: apperr.ErrTransient},
		{name: "network failure", err: errors.New("connection reset by peer"), want: apperr.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classify(t.Context(), tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyKeepsCallerCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	got := classify(ctx, context.Canceled)
	assert.ErrorIs(t, got, context.Canceled)
	assert.False(t, apperr.IsTransient(got))
	assert.NotErrorIs(t, got, apperr.ErrPermanentService)
}
