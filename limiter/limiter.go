package limiter

import "context"

type LimitType string

const (
	ConnectLimit  LimitType = "WS_CONNECT"     // websocket 建连
	SnapshotLimit LimitType = "SNAPSHOT_FETCH" // 快照拉取
	AuthLimit     LimitType = "AUTH_EXCHANGE"  // 凭证交换
)

type Limiter interface {
	// WsAllow websocket 建连是否放行
	WsAllow() bool
	// SnapshotAllow 快照拉取是否放行
	SnapshotAllow() bool
	// AuthAllow 凭证交换是否放行
	AuthAllow() bool
	// WaitSnapshot 阻塞等待快照配额, 周期对账使用
	WaitSnapshot(ctx context.Context) error
}
