package bootstrap

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/clinicore/schedengine/internal/config"
	"github.com/clinicore/schedengine/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.NewWithWriter("error", io.Discard)
}

func TestBuildRedisClientDisabled(t *testing.T) {
	client := BuildRedisClient(context.Background(), &appconfig.Config{}, testLogger(), true)
	assert.Nil(t, client)
}

func TestBuildRedisClientVerified(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &appconfig.Config{RedisAddr: mr.Addr()}
	client := BuildRedisClient(context.Background(), cfg, testLogger(), true)
	require.NotNil(t, client)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestBuildRedisClientUnreachable(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	client := BuildRedisClient(context.Background(), cfg, testLogger(), true)
	assert.Nil(t, client)
}

func TestBuildSlotCache(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &appconfig.Config{RedisAddr: mr.Addr(), SlotCacheTTL: time.Minute}
	cache := BuildSlotCache(context.Background(), cfg, testLogger())
	assert.NotNil(t, cache)

	assert.Nil(t, BuildSlotCache(context.Background(), &appconfig.Config{}, testLogger()))
}
