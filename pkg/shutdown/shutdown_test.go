package shutdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestAndReset(t *testing.T) {
	t.Cleanup(Reset)

	assert.False(t, IsRequested())
	Request()
	assert.True(t, IsRequested())
	Reset()
	assert.False(t, IsRequested())
}

func TestRequestedHonoursContext(t *testing.T) {
	t.Cleanup(Reset)

	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, Requested(ctx))
	cancel()
	assert.True(t, Requested(ctx))

	assert.False(t, Requested(context.Background()))
	Request()
	assert.True(t, Requested(context.Background()))
}
