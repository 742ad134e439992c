package gorilla

import (
	"net/http"
	"sync"
	"time"

	gwebsocket "github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadLimit        = 655350
)

func NewGorillaWebSocketConn() *GorillaWebSocketConn {
	return &GorillaWebSocketConn{
		handshakeTimeout: defaultHandshakeTimeout,
		readLimit:        defaultReadLimit,
	}
}

type GorillaWebSocketConn struct {
	mu               sync.Mutex // gorilla 不允许并发写, 业务帧与控制帧共用一把锁
	conn             *gwebsocket.Conn
	handshakeTimeout time.Duration
	readLimit        int64
}

func (g *GorillaWebSocketConn) Dial(endpoint string, requestHeader http.Header) error {
	dialer := gwebsocket.Dialer{
		HandshakeTimeout: g.handshakeTimeout,
	}
	conn, _, err := dialer.Dial(endpoint, requestHeader)
	if err != nil {
		return err
	}
	conn.SetReadLimit(g.readLimit)
	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()
	return nil
}

func (g *GorillaWebSocketConn) ReadMessage() (int, []byte, error) {
	return g.conn.ReadMessage()
}

func (g *GorillaWebSocketConn) WriteMessage(messageType int, data []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn.WriteMessage(messageType, data)
}

func (g *GorillaWebSocketConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	// WriteControl 自带并发保护, 不与数据帧锁互斥
	return g.conn.WriteControl(messageType, data, deadline)
}

func (g *GorillaWebSocketConn) SetPingHandler(h func(appData string) error) {
	g.conn.SetPingHandler(h)
}

func (g *GorillaWebSocketConn) SetPongHandler(h func(appData string) error) {
	g.conn.SetPongHandler(h)
}

func (g *GorillaWebSocketConn) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return nil
	}
	return g.conn.Close()
}
