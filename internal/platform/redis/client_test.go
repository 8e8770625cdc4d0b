package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexchain/internal/platform/config"
)

func TestNewWithoutURLIsDisabled(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{}, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewConnectsAndReportsHealth(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()}, prometheus.NewRegistry())
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Close()

	assert.NoError(t, c.Health(context.Background()))
	c.RecordPoolStats()
	c.RecordPoolStats()
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), config.RedisConfig{URL: "redis://" + addr}, prometheus.NewRegistry())
	assert.ErrorContains(t, err, "redis ping failed")
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), config.RedisConfig{URL: "::not a url"}, prometheus.NewRegistry())
	assert.ErrorContains(t, err, "parse redis URL")
}
