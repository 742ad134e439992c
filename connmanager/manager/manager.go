package manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/connmanager"
	"github.com/go-gotop/statesync/websocket"
)

var (
	// 错误定义
	ErrMaxConnReached = errors.New("max connection reached")
	ErrStreamNotFound = errors.New("stream not found")
	ErrStreamExists   = errors.New("stream already exists")
	ErrLimitExceed    = errors.New("websocket request too frequent, please try again later")
	ErrManagerClosed  = errors.New("stream manager closed")
	ErrNotConnected   = errors.New("stream not connected")
)

var _ connmanager.StreamManager = (*Manager)(nil)

type Manager struct {
	config  *options                // 连接配置
	mux     sync.Mutex              // 互斥锁
	streams map[string]*stream      // 连接集合
	closed  bool
}

func NewManager(opts ...Option) *Manager {
	config := defaultOptions()
	for _, opt := range opts {
		opt(config)
	}

	return &Manager{
		config:  config,
		streams: make(map[string]*stream),
	}
}

func (m *Manager) AddStream(ctx context.Context, req *connmanager.StreamRequest) (string, error) {
	if req == nil || req.ID == "" || req.Endpoint == "" {
		return "", errors.New("invalid stream request")
	}

	m.mux.Lock()
	if m.closed {
		m.mux.Unlock()
		return "", ErrManagerClosed
	}
	// 最大连接数限制
	if len(m.streams) >= m.config.maxConn {
		m.mux.Unlock()
		return "", ErrMaxConnReached
	}
	if _, ok := m.streams[req.ID]; ok {
		m.mux.Unlock()
		return "", fmt.Errorf("%w: %s", ErrStreamExists, req.ID)
	}
	s := newStream(ctx, m.config, req)
	m.streams[req.ID] = s
	m.mux.Unlock()

	go s.run()
	return req.ID, nil
}

func (m *Manager) CloseStream(id string) error {
	m.mux.Lock()
	s := m.streams[id]
	delete(m.streams, id)
	m.mux.Unlock()

	if s == nil {
		return ErrStreamNotFound
	}
	s.close()
	return nil
}

func (m *Manager) Subscribe(id string, sub connmanager.Subscription) error {
	s := m.stream(id)
	if s == nil {
		return ErrStreamNotFound
	}
	return s.subscribe(sub)
}

func (m *Manager) Unsubscribe(id string, subID string) error {
	s := m.stream(id)
	if s == nil {
		return ErrStreamNotFound
	}
	return s.unsubscribe(subID)
}

func (m *Manager) Subscriptions(id string) []connmanager.Subscription {
	s := m.stream(id)
	if s == nil {
		return nil
	}
	return s.subscriptions()
}

func (m *Manager) Send(id string, payload []byte) error {
	s := m.stream(id)
	if s == nil {
		return ErrStreamNotFound
	}
	return s.send(payload)
}

func (m *Manager) Status(id string) connmanager.Status {
	s := m.stream(id)
	if s == nil {
		return ""
	}
	return s.currentStatus()
}

func (m *Manager) IsConnected(id string) bool {
	return m.Status(id) == connmanager.StatusConnected
}

func (m *Manager) Shutdown() error {
	m.mux.Lock()
	m.closed = true
	streams := make([]*stream, 0, len(m.streams))
	for _, s := range m.streams {
		streams = append(streams, s)
	}
	m.streams = make(map[string]*stream)
	m.mux.Unlock()

	for _, s := range streams {
		s.close()
	}
	return nil
}

func (m *Manager) stream(id string) *stream {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.streams[id]
}

// stream 单条连接的重连状态机, 生命周期内底层 websocket 可更换多次
type stream struct {
	config *options
	req    *connmanager.StreamRequest
	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	ws            websocket.Websocket
	status        connmanager.Status
	subs          []connmanager.Subscription // 登记顺序
	attempt       int
	everConnected bool

	retryCh   chan string // 掉线信号, 携带原因
	exitChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

func newStream(ctx context.Context, config *options, req *connmanager.StreamRequest) *stream {
	sctx, cancel := context.WithCancel(ctx)
	return &stream{
		config:   config,
		req:      req,
		ctx:      sctx,
		cancel:   cancel,
		status:   connmanager.StatusDisconnected,
		retryCh:  make(chan string, 1),
		exitChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// run 连接循环: 建连, 守护, 掉线后退避重试
func (s *stream) run() {
	defer func() {
		// 兜底断开, 防止循环退出后读协程滞留
		s.mu.Lock()
		ws := s.ws
		s.ws = nil
		s.mu.Unlock()
		if ws != nil {
			ws.Disconnect()
		}
		close(s.doneChan)
	}()

	for {
		select {
		case <-s.exitChan:
			return
		case <-s.ctx.Done():
			return
		default:
		}

		if err := s.connect(); err != nil {
			s.config.logger.Errorf("stream %s: connect failed: %v", s.req.ID, err)
			if !s.waitRetry(err.Error()) {
				return
			}
			continue
		}

		reason, retry := s.watch()
		if !retry {
			return
		}
		s.setStatus(connmanager.StatusReconnecting)
		s.publishConn(broker.ConnectionLostEvent, func(c *broker.ConnectionMeta) {
			c.Reason = reason
		})
		s.config.logger.Warnf("stream %s: connection lost: %s", s.req.ID, reason)
		if !s.waitRetry(reason) {
			return
		}
	}
}

func (s *stream) connect() error {
	// websocket连接频率限制
	if s.config.connLimiter != nil && !s.config.connLimiter.WsAllow() {
		return ErrLimitExceed
	}

	if s.everConnected {
		s.setStatus(connmanager.StatusReconnecting)
	} else {
		s.setStatus(connmanager.StatusConnecting)
	}

	// 每次拨号重算握手头, 凭证可能已轮换
	var header http.Header
	if s.req.HeaderFunc != nil {
		h, err := s.req.HeaderFunc(s.ctx)
		if err != nil {
			return fmt.Errorf("handshake header: %w", err)
		}
		header = h
	}

	ws := s.config.wsFactory(&websocket.WebsocketConfig{})
	err := ws.Connect(&websocket.WebsocketRequest{
		ID:             s.req.ID,
		Endpoint:       s.req.Endpoint,
		Header:         header,
		MessageHandler: s.handleMessage,
		ErrorHandler: func(id string, err error) {
			s.signalRetry(err.Error())
		},
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.ws
	s.ws = ws
	resumed := s.everConnected
	s.everConnected = true
	s.attempt = 0
	s.status = connmanager.StatusConnected
	s.mu.Unlock()
	if old != nil {
		old.Disconnect()
	}

	s.publishConn(broker.ConnectedEvent, func(c *broker.ConnectionMeta) {
		c.Resumed = resumed
	})
	s.config.logger.Infof("stream %s: connected (resumed=%v)", s.req.ID, resumed)

	// 按登记顺序重放订阅
	n, err := s.replay(ws)
	if err != nil {
		ws.Disconnect()
		return fmt.Errorf("replay subscriptions: %w", err)
	}
	if n > 0 {
		s.publishConn(broker.SubscriptionReplayedEvent, func(c *broker.ConnectionMeta) {
			c.Resumed = resumed
			c.Replayed = n
		})
	}
	return nil
}

// handleMessage 处理一条推送。单条坏消息记录并发事件, 连接保持。
func (s *stream) handleMessage(b []byte) error {
	if s.req.MessageHandler == nil {
		return nil
	}
	err := s.req.MessageHandler(b)
	if err != nil {
		s.config.logger.Errorf("stream %s: message handler: %v", s.req.ID, err)
		s.publishConn(broker.MessageErrorEvent, func(c *broker.ConnectionMeta) {
			c.Reason = err.Error()
		})
	}
	return err
}

// watch 驻留在已连接状态, 返回掉线原因与是否继续重连
func (s *stream) watch() (string, bool) {
	var hbC <-chan time.Time
	if s.config.isCheckReConn {
		hb := time.NewTicker(s.config.heartbeatInterval)
		defer hb.Stop()
		hbC = hb.C
	}

	for {
		select {
		case <-s.exitChan:
			return "", false
		case <-s.ctx.Done():
			return "", false
		case reason := <-s.retryCh:
			return reason, true
		case <-hbC:
			ws := s.websocket()
			if ws == nil {
				continue
			}
			if time.Since(ws.LastMessageAt()) > s.config.staleTimeout {
				ws.Disconnect()
				return "heartbeat timeout", true
			}
			if s.config.maxConnDuration > 0 && ws.ConnectionDuration() > s.config.maxConnDuration {
				ws.Disconnect()
				return "max connection duration reached", true
			}
			if err := ws.Ping(nil, time.Now().Add(5*time.Second)); err != nil {
				ws.Disconnect()
				return "ping failed: " + err.Error(), true
			}
		}
	}
}

// waitRetry 计数并等待下一次尝试, 返回 false 表示停止重连
func (s *stream) waitRetry(reason string) bool {
	s.mu.Lock()
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	if attempt > s.config.maxAttempts {
		if s.config.retryPolicy == connmanager.RetryBounded {
			s.setStatus(connmanager.StatusFailed)
			s.publishConn(broker.ConnectionFailedEvent, func(c *broker.ConnectionMeta) {
				c.Attempt = attempt - 1
				c.Reason = reason
			})
			s.config.logger.Errorf("stream %s: giving up after %d attempts: %s", s.req.ID, attempt-1, reason)
			return false
		}
		// RetryForever: 计数折半, 间隔停留在高档而不归零
		s.mu.Lock()
		s.attempt = s.config.maxAttempts / 2
		if s.attempt < 1 {
			s.attempt = 1
		}
		attempt = s.attempt
		s.mu.Unlock()
	}

	delay := s.config.backoff.Next(attempt)
	s.publishConn(broker.ReconnectScheduledEvent, func(c *broker.ConnectionMeta) {
		c.Attempt = attempt
		c.Delay = delay
		c.Reason = reason
	})
	s.config.logger.Infof("stream %s: reconnect attempt %d in %s", s.req.ID, attempt, delay)

	select {
	case <-time.After(delay):
		return true
	case <-s.exitChan:
		return false
	case <-s.ctx.Done():
		return false
	}
}

func (s *stream) subscribe(sub connmanager.Subscription) error {
	if sub.ID == "" {
		return errors.New("subscription id required")
	}

	s.mu.Lock()
	send := true
	found := false
	for i := range s.subs {
		if s.subs[i].ID == sub.ID {
			send = !bytes.Equal(s.subs[i].Payload, sub.Payload)
			s.subs[i] = sub
			found = true
			break
		}
	}
	if !found {
		s.subs = append(s.subs, sub)
	}
	ws := s.ws
	connected := s.status == connmanager.StatusConnected
	s.mu.Unlock()

	// 已连接立即发送, 重复登记相同报文不重发, 断线时留待重放
	if send && connected && ws != nil {
		if err := ws.WriteMessage(websocket.TextMessage, sub.Payload); err != nil {
			s.signalRetry("subscribe write failed: " + err.Error())
			return err
		}
	}
	return nil
}

func (s *stream) unsubscribe(subID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.subs {
		if s.subs[i].ID == subID {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscription not found: %s", subID)
}

func (s *stream) subscriptions() []connmanager.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]connmanager.Subscription, len(s.subs))
	copy(out, s.subs)
	return out
}

func (s *stream) replay(ws websocket.Websocket) (int, error) {
	subs := s.subscriptions()
	for _, sub := range subs {
		if err := ws.WriteMessage(websocket.TextMessage, sub.Payload); err != nil {
			return 0, err
		}
	}
	return len(subs), nil
}

func (s *stream) send(payload []byte) error {
	s.mu.Lock()
	ws := s.ws
	connected := s.status == connmanager.StatusConnected
	s.mu.Unlock()
	if !connected || ws == nil {
		return ErrNotConnected
	}
	return ws.WriteMessage(websocket.TextMessage, payload)
}

// close 主动关闭, 等待连接循环退出
func (s *stream) close() {
	s.closeOnce.Do(func() {
		close(s.exitChan)
		s.cancel()
	})
	<-s.doneChan

	s.mu.Lock()
	prev := s.status
	s.status = connmanager.StatusClosed
	s.mu.Unlock()

	if prev != connmanager.StatusFailed && prev != connmanager.StatusClosed {
		s.publishConn(broker.ConnectionClosedEvent, nil)
	}
}

func (s *stream) signalRetry(reason string) {
	select {
	case s.retryCh <- reason:
	default:
	}
}

func (s *stream) websocket() websocket.Websocket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ws
}

func (s *stream) currentStatus() connmanager.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *stream) setStatus(st connmanager.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *stream) publishConn(t broker.EventType, mutate func(*broker.ConnectionMeta)) {
	if s.config.bus == nil {
		return
	}
	evt := broker.NewEvent(t, s.req.ID)
	meta := &broker.ConnectionMeta{StreamID: s.req.ID}
	if mutate != nil {
		mutate(meta)
	}
	evt.Connection = meta
	s.config.bus.Publish(s.ctx, evt)
}
