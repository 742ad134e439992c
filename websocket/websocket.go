package websocket

//go:generate mockgen -source=websocket.go -destination=mock/websocket.go -package=mock_websocket

import (
	"net/http"
	"time"
)

// TextMessage, PingMessage 等消息类型常量与 RFC 6455 保持一致
const (
	TextMessage   = 1
	BinaryMessage = 2
	CloseMessage  = 8
	PingMessage   = 9
	PongMessage   = 10
)

type WebSocketConn interface {
	Dial(endpoint string, requestHeader http.Header) error
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	// WriteControl 写入控制帧, 心跳探测走这里
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// WebsocketConfig 结构体定义了WebSocket实例的配置选项
type WebsocketConfig struct {
	PingHandler func(appData string) error
	PongHandler func(appData string) error
	// HandshakeTimeout 握手超时, 零值使用默认 10s
	HandshakeTimeout time.Duration
	// ReadLimit 单条消息字节上限, 零值使用默认 655350
	ReadLimit int64
}

type WebsocketRequest struct {
	// Endpoint 是Websocket服务器的地址
	Endpoint string

	// ID 是Websocket连接的唯一标识符
	ID string

	// Header 随握手请求附带的头部, 鉴权凭证从这里注入
	Header http.Header

	// MessageHandler 是Websocket消息处理函数
	MessageHandler func([]byte) error

	// ErrorHandler 是Websocket错误处理函数, 仅在非主动断开时触发
	ErrorHandler func(id string, err error)

	// ConnectedHandler 在连接建立后触发
	ConnectedHandler func(id string, conn WebSocketConn)

	// ClosedHandler 在读协程退出后触发, 主动断开不触发
	ClosedHandler func(id string)
}

// Websocket 接口定义了基本的连接管理操作
type Websocket interface {
	// Connect 方法用于建立Websocket连接
	// req 参数是连接请求的相关信息
	Connect(req *WebsocketRequest) error

	// Disconnect 方法用于关闭Websocket连接, 关闭前先摘除回调
	Disconnect() error

	// Reconnect 方法用于重新建立Websocket连接
	Reconnect() error

	// IsConnected 方法用于检查Websocket连接是否处于活跃状态
	// 返回 true 表示连接是活跃的，false 表示连接已经关闭或尚未建立
	IsConnected() bool

	// WriteMessage 写入一条数据帧
	WriteMessage(messageType int, data []byte) error

	// Ping 发送一条心跳控制帧
	Ping(payload []byte, deadline time.Time) error

	// LastMessageAt 最近一次收到消息的时间
	LastMessageAt() time.Time

	// GetCurrentRate 方法用于获取当前的通讯速率
	// 返回值是每秒接收的消息数
	GetCurrentRate() int

	// ConnectionDuration 方法用于获取当前连接的持续时间
	ConnectionDuration() time.Duration
}
