// Description: 会话令牌管理器
// 到期前 refreshBuffer 主动刷新, 刷新失败立即做一次完整重新鉴权,
// 再失败判定为致命并通知上层, 不做无限重试。
// 持久化层里未过期的令牌在启动时直接复用, 避免重复登录挤占鉴权额度。

package manager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/exchange"
	"github.com/go-gotop/statesync/session"
	"github.com/go-gotop/statesync/session/store"
)

var _ session.Session = (*Manager)(nil)

var (
	// ErrNotStarted 会话尚未启动
	ErrNotStarted = errors.New("session not started")
)

// Manager 单账户实例的会话管理器
type Manager struct {
	opts       *options
	instanceID string
	creds      session.Credentials
	auth       session.Authenticator

	mux         sync.Mutex
	token       session.Token
	hasToken    bool
	failed      bool
	lastErr     error
	started     bool
	loopStarted bool

	exitChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

func NewManager(instanceID string, creds session.Credentials, auth session.Authenticator, opts ...Option) *Manager {
	// 默认配置
	o := &options{
		logger:        log.NewHelper(log.DefaultLogger),
		store:         store.NewMemory(),
		refreshBuffer: 5 * time.Minute,
		authTimeout:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Manager{
		opts:       o,
		instanceID: instanceID,
		creds:      creds,
		auth:       auth,
		exitChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// Start 完成初次鉴权并启动刷新调度。凭证为空时跳过鉴权, 以公共身份接入。
func (m *Manager) Start(ctx context.Context) error {
	if m.creds.Empty() {
		return nil
	}

	m.mux.Lock()
	if m.started {
		m.mux.Unlock()
		return nil
	}
	m.started = true
	m.mux.Unlock()

	tok, ok, err := m.opts.store.Load(ctx, m.instanceID)
	if err != nil {
		m.opts.logger.Warnf("load session token failed: %v", err)
	}
	if ok && tok.Usable(m.opts.refreshBuffer) {
		m.setToken(ctx, tok)
		m.opts.logger.Infof("session %s resumed, expires in %s", m.instanceID, tok.ExpiresIn())
	} else {
		tok, err = m.login(ctx)
		if err != nil {
			m.mux.Lock()
			m.started = false
			m.mux.Unlock()
			return err
		}
		m.setToken(ctx, tok)
	}

	m.mux.Lock()
	m.loopStarted = true
	m.mux.Unlock()
	go m.refreshLoop()

	return nil
}

// Token 当前令牌, 会话失效后不再返回令牌
func (m *Manager) Token() (session.Token, bool) {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.token, m.hasToken && !m.failed
}

// Failed 会话是否已致命失效
func (m *Manager) Failed() bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	return m.failed
}

// AuthHeader 携带当前令牌的请求头, 每次拨号时重新取用,
// 重连自然携带刷新后的令牌。凭证为空时返回空头。
func (m *Manager) AuthHeader(ctx context.Context) (http.Header, error) {
	if m.creds.Empty() {
		return nil, nil
	}

	m.mux.Lock()
	tok, hasToken, failed, lastErr := m.token, m.hasToken, m.failed, m.lastErr
	m.mux.Unlock()

	if failed {
		return nil, fmt.Errorf("%w: %v", exchange.ErrAuthenticationFailed, lastErr)
	}
	if !hasToken {
		return nil, ErrNotStarted
	}
	if tok.ExpiresIn() <= 0 {
		return nil, exchange.ErrSessionExpired
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok.AccessToken)
	return h, nil
}

// Close 注销令牌并停止调度
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.exitChan)
	})

	m.mux.Lock()
	loopStarted := m.loopStarted
	m.mux.Unlock()
	if loopStarted {
		<-m.doneChan
	}

	m.mux.Lock()
	tok, hasToken := m.token, m.hasToken
	m.token = session.Token{}
	m.hasToken = false
	m.mux.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.authTimeout)
	defer cancel()
	if hasToken {
		if err := m.auth.Logout(ctx, tok); err != nil {
			m.opts.logger.Warnf("logout failed: %v", err)
		}
	}
	if err := m.opts.store.Delete(ctx, m.instanceID); err != nil {
		m.opts.logger.Warnf("delete session token failed: %v", err)
	}

	return nil
}

func (m *Manager) login(ctx context.Context) (session.Token, error) {
	if m.opts.authLimiter != nil && !m.opts.authLimiter.AuthAllow() {
		return session.Token{}, exchange.ErrRateLimitExceeded
	}
	ctx, cancel := context.WithTimeout(ctx, m.opts.authTimeout)
	defer cancel()
	return m.auth.Login(ctx, m.creds)
}

func (m *Manager) setToken(ctx context.Context, tok session.Token) {
	m.mux.Lock()
	m.token = tok
	m.hasToken = true
	m.mux.Unlock()

	if err := m.opts.store.Save(ctx, m.instanceID, tok); err != nil {
		m.opts.logger.Warnf("save session token failed: %v", err)
	}
}

func (m *Manager) refreshLoop() {
	defer close(m.doneChan)
	for {
		tok, ok := m.Token()
		if !ok {
			return
		}

		delay := tok.ExpiresIn() - m.opts.refreshBuffer
		if delay < 0 {
			delay = 0
		}
		timer := time.NewTimer(delay)
		select {
		case <-m.exitChan:
			timer.Stop()
			return
		case <-timer.C:
		}

		if !m.renew() {
			return
		}
	}
}

// renew 刷新令牌, 返回 false 表示会话已致命失效
func (m *Manager) renew() bool {
	cur, ok := m.Token()
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.authTimeout)
	tok, err := m.auth.Refresh(ctx, cur.RefreshToken)
	cancel()
	if err == nil {
		m.setToken(context.Background(), tok)
		m.publish(broker.TokenRefreshedEvent, tok.ExpiresAt, "")
		return true
	}
	m.opts.logger.Warnf("session %s refresh failed: %v, trying full re-authentication", m.instanceID, err)

	ctx, cancel = context.WithTimeout(context.Background(), m.opts.authTimeout)
	tok, loginErr := m.auth.Login(ctx, m.creds)
	cancel()
	if loginErr != nil {
		m.fail(fmt.Errorf("re-authentication after refresh failure: %w", loginErr))
		return false
	}
	m.setToken(context.Background(), tok)
	m.publish(broker.ReauthenticatedEvent, tok.ExpiresAt, err.Error())
	return true
}

func (m *Manager) fail(err error) {
	m.mux.Lock()
	m.failed = true
	m.lastErr = err
	m.mux.Unlock()

	m.opts.logger.Errorf("session %s failed: %v", m.instanceID, err)
	m.publish(broker.AuthFailedEvent, 0, err.Error())
	if m.opts.onFatal != nil {
		m.opts.onFatal(err)
	}
}

func (m *Manager) publish(t broker.EventType, expiresAt int64, reason string) {
	if m.opts.bus == nil {
		return
	}
	evt := broker.NewEvent(t, m.instanceID)
	evt.Session = &broker.SessionMeta{
		ExpiresAt: expiresAt,
		Reason:    reason,
	}
	m.opts.bus.Publish(context.Background(), evt)
}
