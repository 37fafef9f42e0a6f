package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClientIsNoOp(t *testing.T) {
	client, err := NewClient(context.Background(), "test", "us-east-1", false)
	require.NoError(t, err)
	assert.False(t, client.enabled)

	// None of these may touch AWS or panic when disabled.
	assert.NotPanics(t, func() {
		client.RecordAPIRequest("/api/v1/melody/generations", 200, 10*time.Millisecond)
		client.RecordGeneration("hopeful", 6, 0, 50*time.Millisecond)
		client.RecordOracleTokens("gpt-5-mini", 160, 120, 40, 0)
	})
}

func TestNilClientIsNoOp(t *testing.T) {
	var client *Client
	assert.NotPanics(t, func() {
		client.RecordAPIRequest("/health", 200, time.Millisecond)
		client.RecordGeneration("calm", 12, 1, time.Second)
		client.RecordOracleTokens("gemini-2.5-flash", 100, 80, 20, 0)
	})
}

func TestSentryMetricsSafeWithoutHub(t *testing.T) {
	m := NewSentryMetrics()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordAPIRequest(ctx, "/api/v1/melody/generations", 200, 10*time.Millisecond)
		m.RecordGeneration(ctx, "hopeful", 6, 1, 0, 50*time.Millisecond)
		m.RecordOracleTokens(ctx, "gpt-5-mini", 160, 120, 40, 0)
	})
}
