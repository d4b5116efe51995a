package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient("not-a-redis-url")
	assert.ErrorContains(t, err, "failed to parse Redis URL")
}

func TestNewRedisClient(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := NewRedisClient(url)
	require.NoError(t, err)
	defer client.Close()
}
