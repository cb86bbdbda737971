package gate_test

import (
	"testing"

	"github.com/robalyx/invitegate/internal/gate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCallback(t *testing.T) {
	t.Parallel()

	data := gate.EncodeCheckCallback(12345, -1009876543210)
	assert.Equal(t, "check_invites_group:12345:-1009876543210", data)
	assert.LessOrEqual(t, len(data), 64)

	userID, group, err := gate.ParseCheckCallback(data)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), userID)
	assert.Equal(t, int64(-1009876543210), group)
}

func TestParseCheckCallbackRejectsInvalidData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "other prefix", data: "other:1:2"},
		{name: "missing group", data: "check_invites_group:1"},
		{name: "extra part", data: "check_invites_group:1:2:3"},
		{name: "bad user", data: "check_invites_group:abc:2"},
		{name: "bad group", data: "check_invites_group:1:xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := gate.ParseCheckCallback(tt.data)
			require.ErrorIs(t, err, gate.ErrInvalidCallback)
		})
	}
}
