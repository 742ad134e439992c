package gorilla

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gotop/statesync/websocket"
)

func NewGorillaWebsocket(conn websocket.WebSocketConn, config *websocket.WebsocketConfig) *GorillaWebsocket {
	g := &GorillaWebsocket{
		conn:    conn,
		config:  config,
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	return g
}

// GorillaWebsocket 是 Websocket 接口的实现
type GorillaWebsocket struct {
	messageCount atomic.Uint64
	lastMsgNano  atomic.Int64
	isConnected  atomic.Bool
	conn         websocket.WebSocketConn
	config       *websocket.WebsocketConfig
	req          *websocket.WebsocketRequest
	mu           sync.Mutex
	closeCh      chan struct{}
	doneCh       chan struct{}
	closeOnce    sync.Once
	doneOnce     sync.Once
	connectTime  time.Time
}

func (w *GorillaWebsocket) Connect(req *websocket.WebsocketRequest) error {
	if err := w.conn.Dial(req.Endpoint, req.Header); err != nil {
		w.doneOnce.Do(func() {
			close(w.doneCh)
		})
		return err
	}
	w.configure()
	w.req = req
	w.isConnected.Store(true)
	w.connectTime = time.Now()
	w.messageCount.Store(0)
	w.lastMsgNano.Store(time.Now().UnixNano())
	go w.readMessages(req, w.closeCh)
	if req.ConnectedHandler != nil {
		req.ConnectedHandler(req.ID, w.conn)
	}

	return nil
}

func (w *GorillaWebsocket) configure() {
	if w.config == nil {
		return
	}
	if w.config.PingHandler != nil {
		w.conn.SetPingHandler(w.config.PingHandler)
	}
	if w.config.PongHandler != nil {
		w.conn.SetPongHandler(w.config.PongHandler)
	}
}

func (w *GorillaWebsocket) readMessages(req *websocket.WebsocketRequest, closeCh chan struct{}) {
	defer w.doneOnce.Do(func() {
		close(w.doneCh)
	}) // 确保此方法退出时标记doneCh为已完成
	for {
		select {
		case <-closeCh: // 如果收到关闭信号，则立即退出循环
			return
		default:
			_, message, err := w.conn.ReadMessage()
			if err != nil {
				// 当遇到错误时，首先检查是否因为连接已主动关闭
				select {
				case <-closeCh: // 主动断开, 回调已摘除, 不再上报错误
				default:
					// 读取消息时发生错误，标识连接已断开
					w.isConnected.Store(false)
					if req != nil && req.ErrorHandler != nil {
						req.ErrorHandler(req.ID, err)
					}
					if req != nil && req.ClosedHandler != nil {
						req.ClosedHandler(req.ID)
					}
				}
				return // 退出循环
			}
			w.lastMsgNano.Store(time.Now().UnixNano())
			w.messageCount.Add(1)
			if req.MessageHandler != nil {
				req.MessageHandler(message) // 处理接收到的消息
			}
		}
	}
}

func (w *GorillaWebsocket) ID() string {
	if w.req == nil {
		return ""
	}
	return w.req.ID
}

func (w *GorillaWebsocket) Disconnect() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh) // 先通知读协程摘除回调并退出
		if w.conn != nil {
			err = w.conn.Close() // 关闭WebSocket连接
		}
	})
	w.isConnected.Store(false)
	<-w.doneCh // 确保读协程已经结束
	return err
}

func (w *GorillaWebsocket) Reconnect() error {
	w.Disconnect()

	w.mu.Lock()
	// 重置通道，准备新的连接周期
	w.closeCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.closeOnce = sync.Once{} // 重置sync.Once，以便再次使用
	w.doneOnce = sync.Once{}
	req := w.req
	w.mu.Unlock()

	// 重新建立连接
	return w.Connect(req)
}

func (w *GorillaWebsocket) IsConnected() bool {
	return w.isConnected.Load()
}

func (w *GorillaWebsocket) WriteMessage(messageType int, data []byte) error {
	return w.conn.WriteMessage(messageType, data)
}

func (w *GorillaWebsocket) Ping(payload []byte, deadline time.Time) error {
	return w.conn.WriteControl(websocket.PingMessage, payload, deadline)
}

func (w *GorillaWebsocket) LastMessageAt() time.Time {
	return time.Unix(0, w.lastMsgNano.Load())
}

func (w *GorillaWebsocket) GetCurrentRate() int {
	elapsed := time.Since(w.connectTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	rate := float64(w.messageCount.Load()) / elapsed
	return int(rate) // 返回每秒消息数
}

func (w *GorillaWebsocket) ConnectionDuration() time.Duration {
	return time.Since(w.connectTime)
}
