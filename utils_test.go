package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", FormatDuration(5*time.Second))
	assert.Equal(t, "1m 30s", FormatDuration(90*time.Second))
	assert.Equal(t, "1h 1m 40s", FormatDuration(3700*time.Second))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 50, Clamp(50, 0, 100))
	assert.Equal(t, 0, Clamp(-5, 0, 100))
	assert.Equal(t, 100, Clamp(250, 0, 100))

	assert.Equal(t, 0.5, ClampFloat(0.5, 0, 1))
	assert.Equal(t, 1.0, ClampFloat(7.2, 0, 1))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Hour)

	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	rl.Reset()
	assert.True(t, rl.Allow())
}
