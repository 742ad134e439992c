package manager

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/connmanager"
	"github.com/go-gotop/statesync/websocket"
	mock_websocket "github.com/go-gotop/statesync/websocket/mock"
)

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(managerTestSuite))
}

type managerTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	bus  *broker.EventBus
	evCh <-chan *broker.Event
	mws  *mock_websocket.MockWebsocket
	m    *Manager
}

func (s *managerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.bus = broker.NewBus()
	s.evCh, _ = s.bus.Subscribe(128)
	s.mws = mock_websocket.NewMockWebsocket(s.ctrl)
	s.m = s.newManager()
}

func (s *managerTestSuite) TearDownTest() {
	s.m.Shutdown()
	s.bus.Close()
}

func (s *managerTestSuite) newManager(opts ...Option) *Manager {
	base := []Option{
		WithBus(s.bus),
		WithWebsocketFactory(func(conf *websocket.WebsocketConfig) websocket.Websocket {
			return s.mws
		}),
		WithBackoff(connmanager.Backoff{Initial: 5 * time.Millisecond, Max: 20 * time.Millisecond}),
		WithCheckReConn(false),
	}
	return NewManager(append(base, opts...)...)
}

// waitEvent 在总线上等待指定类型的事件, 其余类型跳过
func (s *managerTestSuite) waitEvent(t broker.EventType) *broker.Event {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-s.evCh:
			if evt.Type == t {
				return evt
			}
		case <-deadline:
			s.T().Fatalf("timeout waiting for event %s", t)
			return nil
		}
	}
}

func streamRequest(id string) *connmanager.StreamRequest {
	return &connmanager.StreamRequest{
		ID:             id,
		Endpoint:       "wss://mock.exchange/ws",
		MessageHandler: func([]byte) error { return nil },
	}
}

func (s *managerTestSuite) TestAddStreamConnects() {
	s.mws.EXPECT().Connect(gomock.Any()).Return(nil)
	s.mws.EXPECT().Disconnect().Return(nil).AnyTimes()

	id, err := s.m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)
	s.Equal("acct-1", id)

	evt := s.waitEvent(broker.ConnectedEvent)
	s.False(evt.Connection.Resumed)
	s.Equal("acct-1", evt.Connection.StreamID)
	s.Equal(connmanager.StatusConnected, s.m.Status(id))
	s.True(s.m.IsConnected(id))
}

func (s *managerTestSuite) TestReconnectReplaysSubscriptions() {
	var captured atomic.Pointer[websocket.WebsocketRequest]
	writes := make(chan string, 16)

	s.mws.EXPECT().Connect(gomock.Any()).DoAndReturn(func(req *websocket.WebsocketRequest) error {
		captured.Store(req)
		return nil
	}).Times(2)
	s.mws.EXPECT().WriteMessage(websocket.TextMessage, gomock.Any()).DoAndReturn(func(mt int, data []byte) error {
		writes <- string(data)
		return nil
	}).AnyTimes()
	s.mws.EXPECT().Disconnect().Return(nil).AnyTimes()

	id, err := s.m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)
	s.waitEvent(broker.ConnectedEvent)

	// 已连接状态下订阅会立即发送
	err = s.m.Subscribe(id, connmanager.Subscription{ID: "orders", Payload: []byte(`{"op":"subscribe","ch":"orders"}`)})
	s.Require().NoError(err)
	s.Equal(`{"op":"subscribe","ch":"orders"}`, <-writes)

	// 模拟底层掉线
	captured.Load().ErrorHandler(id, errors.New("unexpected EOF"))

	lost := s.waitEvent(broker.ConnectionLostEvent)
	s.Equal("unexpected EOF", lost.Connection.Reason)

	sched := s.waitEvent(broker.ReconnectScheduledEvent)
	s.Equal(1, sched.Connection.Attempt)
	s.Equal(5*time.Millisecond, sched.Connection.Delay)

	connected := s.waitEvent(broker.ConnectedEvent)
	s.True(connected.Connection.Resumed)

	replayed := s.waitEvent(broker.SubscriptionReplayedEvent)
	s.Equal(1, replayed.Connection.Replayed)
	s.Equal(`{"op":"subscribe","ch":"orders"}`, <-writes)
}

func (s *managerTestSuite) TestRetryBoundedGivesUp() {
	m := s.newManager(
		WithRetryPolicy(connmanager.RetryBounded),
		WithMaxAttempts(2),
	)
	defer m.Shutdown()

	dialErr := errors.New("dial tcp: connection refused")
	s.mws.EXPECT().Connect(gomock.Any()).Return(dialErr).Times(3)

	id, err := m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)

	failed := s.waitEvent(broker.ConnectionFailedEvent)
	s.Equal(2, failed.Connection.Attempt)
	s.Equal("dial tcp: connection refused", failed.Connection.Reason)
	s.Equal(connmanager.StatusFailed, m.Status(id))
}

func (s *managerTestSuite) TestRetryForeverCapsCounter() {
	m := s.newManager(WithMaxAttempts(2))
	defer m.Shutdown()

	var calls atomic.Int32
	s.mws.EXPECT().Connect(gomock.Any()).DoAndReturn(func(req *websocket.WebsocketRequest) error {
		if calls.Add(1) <= 4 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	}).AnyTimes()
	s.mws.EXPECT().Disconnect().Return(nil).AnyTimes()

	_, err := m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)

	// 次数用尽后计数折半, 不会无限增长也不会放弃
	var attempts []int
	for i := 0; i < 4; i++ {
		attempts = append(attempts, s.waitEvent(broker.ReconnectScheduledEvent).Connection.Attempt)
	}
	s.Equal([]int{1, 2, 1, 2}, attempts)
	s.waitEvent(broker.ConnectedEvent)
}

func (s *managerTestSuite) TestCloseStreamStopsRetry() {
	var captured atomic.Pointer[websocket.WebsocketRequest]
	s.mws.EXPECT().Connect(gomock.Any()).DoAndReturn(func(req *websocket.WebsocketRequest) error {
		captured.Store(req)
		return nil
	}).Times(1)
	s.mws.EXPECT().Disconnect().Return(nil).AnyTimes()

	id, err := s.m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)
	s.waitEvent(broker.ConnectedEvent)

	s.Require().NoError(s.m.CloseStream(id))
	s.waitEvent(broker.ConnectionClosedEvent)

	// 主动关闭后掉线信号不再引起重连, Connect 只允许被调用一次
	captured.Load().ErrorHandler(id, errors.New("unexpected EOF"))
	time.Sleep(30 * time.Millisecond)

	s.Equal(connmanager.Status(""), s.m.Status(id))
	s.ErrorIs(s.m.Send(id, []byte("x")), ErrStreamNotFound)
}

func (s *managerTestSuite) TestHeartbeatStaleTriggersReconnect() {
	m := s.newManager(
		WithCheckReConn(true),
		WithHeartbeatInterval(10*time.Millisecond),
		WithStaleTimeout(50*time.Millisecond),
	)
	defer m.Shutdown()

	s.mws.EXPECT().Connect(gomock.Any()).Return(nil).AnyTimes()
	s.mws.EXPECT().LastMessageAt().Return(time.Now().Add(-time.Minute)).AnyTimes()
	s.mws.EXPECT().Disconnect().Return(nil).AnyTimes()

	_, err := m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)
	s.waitEvent(broker.ConnectedEvent)

	lost := s.waitEvent(broker.ConnectionLostEvent)
	s.Equal("heartbeat timeout", lost.Connection.Reason)

	resumed := s.waitEvent(broker.ConnectedEvent)
	s.True(resumed.Connection.Resumed)
}

func (s *managerTestSuite) TestSubscribeDedup() {
	var writes atomic.Int32
	s.mws.EXPECT().Connect(gomock.Any()).Return(nil)
	s.mws.EXPECT().WriteMessage(websocket.TextMessage, gomock.Any()).DoAndReturn(func(int, []byte) error {
		writes.Add(1)
		return nil
	}).AnyTimes()
	s.mws.EXPECT().Disconnect().Return(nil).AnyTimes()

	id, err := s.m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)
	s.waitEvent(broker.ConnectedEvent)

	s.Require().NoError(s.m.Subscribe(id, connmanager.Subscription{ID: "orders", Payload: []byte("v1")}))
	s.Require().NoError(s.m.Subscribe(id, connmanager.Subscription{ID: "orders", Payload: []byte("v2")}))
	// 载荷未变的重复登记不重发
	s.Require().NoError(s.m.Subscribe(id, connmanager.Subscription{ID: "orders", Payload: []byte("v2")}))
	s.Equal(int32(2), writes.Load())

	subs := s.m.Subscriptions(id)
	s.Require().Len(subs, 1)
	s.Equal("orders", subs[0].ID)
	s.Equal([]byte("v2"), subs[0].Payload)

	s.Require().NoError(s.m.Unsubscribe(id, "orders"))
	s.Empty(s.m.Subscriptions(id))
}

func (s *managerTestSuite) TestSendWhileDisconnected() {
	m := s.newManager(WithBackoff(connmanager.Backoff{Initial: time.Hour, Max: time.Hour}))
	defer m.Shutdown()

	s.mws.EXPECT().Connect(gomock.Any()).Return(errors.New("dial tcp: connection refused"))

	id, err := m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)
	s.waitEvent(broker.ReconnectScheduledEvent)

	s.ErrorIs(m.Send(id, []byte("x")), ErrNotConnected)

	// 断线期间订阅只登记不发送
	s.Require().NoError(m.Subscribe(id, connmanager.Subscription{ID: "orders", Payload: []byte("v1")}))
	s.Len(m.Subscriptions(id), 1)
}

func (s *managerTestSuite) TestMaxConnReached() {
	m := s.newManager(WithMaxConn(1))
	defer m.Shutdown()

	s.mws.EXPECT().Connect(gomock.Any()).Return(nil).AnyTimes()
	s.mws.EXPECT().Disconnect().Return(nil).AnyTimes()

	_, err := m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)

	_, err = m.AddStream(context.Background(), streamRequest("acct-2"))
	s.ErrorIs(err, ErrMaxConnReached)

	_, err = m.AddStream(context.Background(), streamRequest("acct-1"))
	s.ErrorIs(err, ErrMaxConnReached)
}

type denyLimiter struct{}

func (denyLimiter) WsAllow() bool                           { return false }
func (denyLimiter) SnapshotAllow() bool                     { return true }
func (denyLimiter) AuthAllow() bool                         { return true }
func (denyLimiter) WaitSnapshot(ctx context.Context) error  { return nil }

func (s *managerTestSuite) TestMessageErrorKeepsConnection() {
	var captured atomic.Pointer[websocket.WebsocketRequest]
	s.mws.EXPECT().Connect(gomock.Any()).DoAndReturn(func(req *websocket.WebsocketRequest) error {
		captured.Store(req)
		return nil
	}).Times(1)
	s.mws.EXPECT().Disconnect().Return(nil).AnyTimes()

	req := streamRequest("acct-1")
	req.MessageHandler = func([]byte) error { return errors.New("unexpected frame") }
	id, err := s.m.AddStream(context.Background(), req)
	s.Require().NoError(err)
	s.waitEvent(broker.ConnectedEvent)

	// 坏消息只上报事件, 不触发重连
	s.Error(captured.Load().MessageHandler([]byte(`{"e":"bogus"}`)))
	evt := s.waitEvent(broker.MessageErrorEvent)
	s.Equal("unexpected frame", evt.Connection.Reason)
	s.True(s.m.IsConnected(id))
}

func (s *managerTestSuite) TestConnLimiterBlocksDial() {
	m := s.newManager(
		WithConnLimiter(denyLimiter{}),
		WithRetryPolicy(connmanager.RetryBounded),
		WithMaxAttempts(1),
	)
	defer m.Shutdown()

	_, err := m.AddStream(context.Background(), streamRequest("acct-1"))
	s.Require().NoError(err)

	failed := s.waitEvent(broker.ConnectionFailedEvent)
	s.Contains(failed.Connection.Reason, "too frequent")
}
