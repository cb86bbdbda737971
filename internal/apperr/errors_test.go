package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "nil", err: nil, want: apperr.KindUnknown},
		{name: "plain", err: errors.New("boom"), want: apperr.KindUnknown},
		{name: "validation", err: fmt.Errorf("bad n: %w", apperr.ErrValidation), want: apperr.KindValidation},
		{name: "permission", err: fmt.Errorf("restrict: %w", apperr.ErrPermission), want: apperr.KindPermission},
		{name: "not found", err: fmt.Errorf("member: %w", apperr.ErrNotFound), want: apperr.KindNotFound},
		{name: "transient", err: fmt.Errorf("call: %w", apperr.ErrTransient), want: apperr.KindTransient},
		{name: "permanent", err: fmt.Errorf("call: %w", apperr.ErrPermanentService), want: apperr.KindPermanentService},
		{name: "unreachable", err: fmt.Errorf("dm: %w", apperr.ErrUnreachable), want: apperr.KindUnreachable},
		{
			name: "unreachable wins over transient",
			err:  fmt.Errorf("%w: %w", apperr.ErrUnreachable, apperr.ErrTransient),
			want: apperr.KindUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, apperr.IsTransient(fmt.Errorf("x: %w", apperr.ErrTransient)))
	assert.False(t, apperr.IsTransient(fmt.Errorf("x: %w", apperr.ErrPermanentService)))
	assert.False(t, apperr.IsTransient(nil))
}
