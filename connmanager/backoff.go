package connmanager

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy 重试次数用尽后的行为
type RetryPolicy int

const (
	// RetryForever 计数折半后继续重试, 等待时长停留在高档, 默认策略
	RetryForever RetryPolicy = iota
	// RetryBounded 放弃重连, 连接进入 FAILED
	RetryBounded
)

// Backoff 指数退避计算器
type Backoff struct {
	// Initial 首次重试前的基础等待
	Initial time.Duration
	// Max 等待时长上限
	Max time.Duration
	// Jitter 抖动比例, 0.25 表示在 ±25% 内随机
	Jitter float64
}

// Next 返回第 attempt 次重试前的等待时长, attempt 从 1 起
func (b Backoff) Next(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(b.Initial) * math.Pow(2, float64(attempt-1))
	if d <= 0 || d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d += d * b.Jitter * (2*rand.Float64() - 1)
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
