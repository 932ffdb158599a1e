package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJoinRateLimiterWindow(t *testing.T) {
	rl := NewJoinRateLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"), "attempt %d should pass", i)
	}
	assert.False(t, rl.Allow("a"))

	// Other connections have their own window.
	assert.True(t, rl.Allow("b"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("a"), "window should have slid")
}

func TestJoinRateLimiterDisabled(t *testing.T) {
	rl := NewJoinRateLimiter(0, time.Second)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("a"))
	}
}

func TestJoinRateLimiterForget(t *testing.T) {
	rl := NewJoinRateLimiter(1, time.Hour)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
}
