package dbretry_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/robalyx/invitegate/internal/database/dbretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBadInput = errors.New("invalid input syntax for type bigint")

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "unexpected eof", err: fmt.Errorf("scan: %w", io.ErrUnexpectedEOF), want: true},
		{name: "timeout", err: errors.New("dial tcp 10.0.0.1:5432: i/o timeout"), want: true},
		{name: "caller cancelled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: false},
		{name: "syntax", err: errBadInput, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dbretry.IsRetryableError(tt.err))
		})
	}
}

func TestOperation(t *testing.T) {
	t.Parallel()

	t.Run("retries network errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := dbretry.Operation(t.Context(), func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("write: broken pipe")
			}
			return 42, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		err := dbretry.NoResult(t.Context(), func(context.Context) error {
			calls++
			return errBadInput
		})

		require.ErrorIs(t, err, errBadInput)
		assert.Equal(t, 1, calls)
	})
}
