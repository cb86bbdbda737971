package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{
			name: "private chat never opened",
			err:  &tgbotapi.Error{Code: 403, Message: "Forbidden: bot can't initiate conversation with a user"},
			want: apperr.KindUnreachable,
		},
		{
			name: "blocked by user",
			err:  &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"},
			want: apperr.KindUnreachable,
		},
		{
			name: "missing admin rights",
			err:  &tgbotapi.Error{Code: 400, Message: "Bad Request: not enough rights to restrict/unrestrict chat member"},
			want: apperr.KindPermission,
		},
		{
			name: "flood control",
			err: &tgbotapi.Error{
				Code:               429,
				Message:            "Too Many Requests: retry after 5",
				ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 5},
			},
			want: apperr.KindTransient,
		},
		{
			name: "server error",
			err:  &tgbotapi.Error{Code: 502, Message: "Bad Gateway"},
			want: apperr.KindTransient,
		},
		{
			name: "bad request",
			err:  &tgbotapi.Error{Code: 400, Message: "Bad Request: message to delete not found"},
			want: apperr.KindPermanentService,
		},
		{
			name: "network failure",
			err:  errors.New("dial tcp: connection refused"),
			want: apperr.KindTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := classify("op", tt.err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClassifyPassesThrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, classify("op", nil))

	err := classify("op", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(err))
}
