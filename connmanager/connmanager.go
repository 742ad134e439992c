package connmanager

import (
	"context"
	"net/http"
)

// Status 连接状态
type Status string

const (
	StatusDisconnected Status = "DISCONNECTED"
	StatusConnecting   Status = "CONNECTING"
	StatusConnected    Status = "CONNECTED"
	StatusReconnecting Status = "RECONNECTING"
	// StatusFailed 有界重试耗尽后的终止态
	StatusFailed Status = "FAILED"
	StatusClosed Status = "CLOSED"
)

// Subscription 订阅登记项。ID 去重, 重连成功后按登记顺序重放 Payload。
type Subscription struct {
	// ID 订阅唯一标识, 如 "orders@BTC/USDT"
	ID string
	// Payload 发往交易所的订阅报文
	Payload []byte
}

type StreamRequest struct {
	// ID 是连接的唯一标识符
	ID string

	// Endpoint 是Websocket服务器的地址
	Endpoint string

	// HeaderFunc 每次拨号前重新计算握手头, 会话凭证从这里注入。
	// 为空则不带额外头部。
	HeaderFunc func(ctx context.Context) (http.Header, error)

	// MessageHandler 是消息处理函数
	MessageHandler func([]byte) error
}

// StreamManager 管理一组带断线重连的 websocket 连接。
// 掉线后按指数退避加抖动重试, 重连成功自动重放订阅。
type StreamManager interface {
	// AddStream 登记连接并启动它的连接循环, 首次拨号异步进行,
	// 建连结果通过事件与 Status 观察
	AddStream(ctx context.Context, req *StreamRequest) (string, error)

	// CloseStream 主动关闭连接, 不触发重连
	CloseStream(id string) error

	// Subscribe 登记订阅, 已连接时立即发送, 断线期间留待重放
	Subscribe(id string, sub Subscription) error

	// Unsubscribe 从登记表移除订阅, 之后的重放不再包含它
	Unsubscribe(id string, subID string) error

	// Subscriptions 返回登记顺序的订阅列表
	Subscriptions(id string) []Subscription

	// Send 在当前连接上发送一条报文
	Send(id string, payload []byte) error

	// Status 返回连接状态, 未知连接返回空值
	Status(id string) Status

	IsConnected(id string) bool

	// Shutdown 关闭全部连接
	Shutdown() error
}
