package redis_test

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/robalyx/invitegate/internal/redis"
	"github.com/robalyx/invitegate/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGetClientReusesConnections(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	manager := redis.NewManager(&config.Redis{Host: mr.Host(), Port: mustPort(t, mr)}, zaptest.NewLogger(t))
	t.Cleanup(manager.Close)

	first, err := manager.GetClient(redis.RatelimitDBIndex)
	require.NoError(t, err)

	second, err := manager.GetClient(redis.RatelimitDBIndex)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, first.Do(t.Context(), first.B().Set().Key("k").Value("v").Build()).Error())

	mr.Select(redis.RatelimitDBIndex)
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	manager.Close()
	manager.Close()
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	return port
}
