package client_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go"
	"github.com/robalyx/invitegate/internal/ai/client"
	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": %q},
		"finish_reason": %q
	}]
}`

func newTestClient(t *testing.T, status int, body string) (*client.AIClient, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	c := client.NewClient(&config.OpenAI{
		BaseURL:        server.URL + "/",
		APIKey:         "sk-test",
		MaxConcurrent:  2,
		RequestTimeout: 5,
	}, &config.CircuitBreaker{MaxRequests: 1, Interval: 60, Timeout: 30}, zaptest.NewLogger(t))

	return c, &calls
}

func params() openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: "gpt-4o-mini",
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("be brief"),
			openai.UserMessage("salom"),
		},
	}
}

func TestChatCompletion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   fmt.Sprintf(completionBody, "Va alaykum assalom", "stop"),
			want:   "Va alaykum assalom",
		},
		{
			name:    "content filter is permanent",
			status:  http.StatusOK,
			body:    fmt.Sprintf(completionBody, "", "content_filter"),
			wantErr: apperr.ErrPermanentService,
		},
		{
			name:    "unauthorized is permanent",
			status:  http.StatusUnauthorized,
			body:    `{"error": {"message": "bad key", "type": "invalid_request_error", "code": "invalid_api_key"}}`,
			wantErr: apperr.ErrPermanentService,
		},
		{
			name:    "server error is transient",
			status:  http.StatusInternalServerError,
			body:    `{"error": {"message": "boom", "type": "server_error", "code": null}}`,
			wantErr: apperr.ErrTransient,
		},
		{
			name:    "empty choices are transient",
			status:  http.StatusOK,
			body:    `{"id": "x", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`,
			wantErr: apperr.ErrTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, calls := newTestClient(t, tt.status, tt.body)

			resp, err := c.Chat().New(t.Context(), params())

			// A single attempt per call, retries belong to the caller
			assert.Equal(t, int32(1), calls.Load())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Choices[0].Message.Content)
		})
	}
}
