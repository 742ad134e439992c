// stlimiter 是状态同步场景的默认限流器。
// 限额为进程内统计, 默认值按主流交易所的公开限制取了保守档。
package stlimiter

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/go-gotop/statesync/limiter"
)

func NewStateSyncLimiter(opts ...limiter.Option) *StateSyncLimiter {
	o := &limiter.Options{
		WsConnectPeriod: "5m",
		WsConnectTimes:  300,
		SnapshotPeriod:  "1m",
		SnapshotTimes:   60,
		AuthPeriod:      "1m",
		AuthTimes:       10,
	}
	for _, opt := range opts {
		opt(o)
	}

	conn, err := limiter.NewPeriodLimiter(o.WsConnectPeriod, o.WsConnectTimes)
	if err != nil {
		conn = rate.NewLimiter(rate.Inf, 0)
	}
	snapshot, err := limiter.NewPeriodLimiter(o.SnapshotPeriod, o.SnapshotTimes)
	if err != nil {
		snapshot = rate.NewLimiter(rate.Inf, 0)
	}
	auth, err := limiter.NewPeriodLimiter(o.AuthPeriod, o.AuthTimes)
	if err != nil {
		auth = rate.NewLimiter(rate.Inf, 0)
	}

	return &StateSyncLimiter{
		opts:     o,
		conn:     conn,
		snapshot: snapshot,
		auth:     auth,
	}
}

type StateSyncLimiter struct {
	opts *limiter.Options // 配置

	conn     *rate.Limiter // 建连限流器
	snapshot *rate.Limiter // 快照限流器
	auth     *rate.Limiter // 凭证交换限流器
}

var _ limiter.Limiter = (*StateSyncLimiter)(nil)

func (s *StateSyncLimiter) WsAllow() bool {
	return s.conn.Allow()
}

func (s *StateSyncLimiter) SnapshotAllow() bool {
	return s.snapshot.Allow()
}

func (s *StateSyncLimiter) AuthAllow() bool {
	return s.auth.Allow()
}

func (s *StateSyncLimiter) WaitSnapshot(ctx context.Context) error {
	return s.snapshot.Wait(ctx)
}
