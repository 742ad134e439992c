package connmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoubling(t *testing.T) {
	b := Backoff{Initial: 500 * time.Millisecond, Max: 30 * time.Second}

	testCases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 500 * time.Millisecond},
		{attempt: 2, want: 1 * time.Second},
		{attempt: 3, want: 2 * time.Second},
		{attempt: 4, want: 4 * time.Second},
		{attempt: 7, want: 30 * time.Second}, // 32s 封顶到 30s
		{attempt: 20, want: 30 * time.Second},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, b.Next(tc.attempt), "attempt %d", tc.attempt)
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := Backoff{Initial: 1 * time.Second, Max: 30 * time.Second, Jitter: 0.25}

	for i := 0; i < 200; i++ {
		d := b.Next(3) // 基础值 4s
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}

func TestBackoffZeroAttempt(t *testing.T) {
	b := Backoff{Initial: 1 * time.Second, Max: 30 * time.Second}
	assert.Equal(t, 1*time.Second, b.Next(0))
	assert.Equal(t, 1*time.Second, b.Next(-5))
}

func TestBackoffOverflowClamped(t *testing.T) {
	b := Backoff{Initial: 1 * time.Second, Max: 30 * time.Second}
	// 足够大的指数不应回绕成负数
	assert.Equal(t, 30*time.Second, b.Next(500))
}
