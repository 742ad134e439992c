package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/go-gotop/statesync/broker"
	"github.com/go-gotop/statesync/exchange"
	"github.com/go-gotop/statesync/session"
	"github.com/go-gotop/statesync/session/store"
)

var testCreds = session.Credentials{APIKey: "key", APISecret: "secret"}

// fakeAuth 可编排的鉴权桩
type fakeAuth struct {
	mu           sync.Mutex
	ttl          time.Duration
	loginErr     error
	refreshErr   error
	loginCalls   int
	refreshCalls int
	logoutCalls  int
}

func (f *fakeAuth) Login(_ context.Context, _ session.Credentials) (session.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return session.Token{}, f.loginErr
	}
	return f.issue("login", f.loginCalls), nil
}

func (f *fakeAuth) Refresh(_ context.Context, _ string) (session.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return session.Token{}, f.refreshErr
	}
	return f.issue("refresh", f.refreshCalls), nil
}

func (f *fakeAuth) Logout(_ context.Context, _ session.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return nil
}

func (f *fakeAuth) issue(prefix string, n int) session.Token {
	return session.Token{
		AccessToken:  fmt.Sprintf("%s-access-%d", prefix, n),
		RefreshToken: fmt.Sprintf("%s-refresh-%d", prefix, n),
		ExpiresAt:    time.Now().Add(f.ttl).UnixMilli(),
	}
}

func (f *fakeAuth) setErrs(loginErr, refreshErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginErr = loginErr
	f.refreshErr = refreshErr
}

func (f *fakeAuth) counts() (login, refresh, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCalls, f.refreshCalls, f.logoutCalls
}

type denyLimiter struct{}

func (denyLimiter) WsAllow() bool                        { return false }
func (denyLimiter) SnapshotAllow() bool                  { return false }
func (denyLimiter) AuthAllow() bool                      { return false }
func (denyLimiter) WaitSnapshot(_ context.Context) error { return context.Canceled }

type sessionTestSuite struct {
	suite.Suite
	bus   *broker.EventBus
	evCh  <-chan *broker.Event
	unsub func()
	auth  *fakeAuth
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(sessionTestSuite))
}

func (s *sessionTestSuite) SetupTest() {
	s.bus = broker.NewBus()
	s.evCh, s.unsub = s.bus.Subscribe(64)
	s.auth = &fakeAuth{ttl: time.Hour}
}

func (s *sessionTestSuite) TearDownTest() {
	s.unsub()
	s.bus.Close()
}

func (s *sessionTestSuite) newManager(creds session.Credentials, opts ...Option) *Manager {
	base := []Option{
		WithBus(s.bus),
		WithRefreshBuffer(50 * time.Millisecond),
		WithAuthTimeout(time.Second),
	}
	return NewManager("acct-main", creds, s.auth, append(base, opts...)...)
}

func (s *sessionTestSuite) waitEvent(t broker.EventType) *broker.Event {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-s.evCh:
			if evt.Type == t {
				return evt
			}
		case <-deadline:
			s.FailNowf("timeout", "no %s event", t)
			return nil
		}
	}
}

func (s *sessionTestSuite) TestStartLogin() {
	m := s.newManager(testCreds)
	s.Require().NoError(m.Start(context.Background()))

	tok, ok := m.Token()
	s.True(ok)
	s.Equal("login-access-1", tok.AccessToken)

	h, err := m.AuthHeader(context.Background())
	s.Require().NoError(err)
	s.Equal("Bearer login-access-1", h.Get("Authorization"))

	s.Require().NoError(m.Close())
	login, _, logout := s.auth.counts()
	s.Equal(1, login)
	s.Equal(1, logout)

	_, ok = m.Token()
	s.False(ok)
}

func (s *sessionTestSuite) TestEmptyCredentials() {
	m := s.newManager(session.Credentials{})
	s.Require().NoError(m.Start(context.Background()))

	_, ok := m.Token()
	s.False(ok)

	h, err := m.AuthHeader(context.Background())
	s.Require().NoError(err)
	s.Nil(h)

	s.Require().NoError(m.Close())
	login, refresh, logout := s.auth.counts()
	s.Zero(login + refresh + logout)
}

func (s *sessionTestSuite) TestResumeFromStore() {
	st := store.NewMemory()
	saved := session.Token{
		AccessToken:  "saved-access",
		RefreshToken: "saved-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	}
	s.Require().NoError(st.Save(context.Background(), "acct-main", saved))

	m := s.newManager(testCreds, WithStore(st))
	s.Require().NoError(m.Start(context.Background()))

	tok, ok := m.Token()
	s.True(ok)
	s.Equal("saved-access", tok.AccessToken)

	login, _, _ := s.auth.counts()
	s.Zero(login)
	s.Require().NoError(m.Close())
}

func (s *sessionTestSuite) TestExpiredStoredTokenTriggersLogin() {
	st := store.NewMemory()
	stale := session.Token{
		AccessToken:  "stale-access",
		RefreshToken: "stale-refresh",
		ExpiresAt:    time.Now().Add(10 * time.Millisecond).UnixMilli(),
	}
	s.Require().NoError(st.Save(context.Background(), "acct-main", stale))

	m := s.newManager(testCreds, WithStore(st))
	s.Require().NoError(m.Start(context.Background()))

	tok, ok := m.Token()
	s.True(ok)
	s.Equal("login-access-1", tok.AccessToken)
	s.Require().NoError(m.Close())
}

func (s *sessionTestSuite) TestProactiveRefresh() {
	s.auth.ttl = 150 * time.Millisecond

	m := s.newManager(testCreds)
	s.Require().NoError(m.Start(context.Background()))

	evt := s.waitEvent(broker.TokenRefreshedEvent)
	s.Equal("acct-main", evt.InstanceID)
	s.Require().NotNil(evt.Session)
	s.Greater(evt.Session.ExpiresAt, int64(0))

	tok, ok := m.Token()
	s.True(ok)
	s.True(strings.HasPrefix(tok.AccessToken, "refresh-access-"))

	s.Require().NoError(m.Close())
	_, refresh, _ := s.auth.counts()
	s.GreaterOrEqual(refresh, 1)
}

func (s *sessionTestSuite) TestRefreshFailureTriggersReauth() {
	s.auth.ttl = 150 * time.Millisecond
	s.auth.setErrs(nil, errors.New("refresh rejected"))

	m := s.newManager(testCreds)
	s.Require().NoError(m.Start(context.Background()))

	evt := s.waitEvent(broker.ReauthenticatedEvent)
	s.Require().NotNil(evt.Session)
	s.Contains(evt.Session.Reason, "refresh rejected")

	tok, ok := m.Token()
	s.True(ok)
	s.True(strings.HasPrefix(tok.AccessToken, "login-access-"))

	login, refresh, _ := s.auth.counts()
	s.GreaterOrEqual(login, 2)
	s.GreaterOrEqual(refresh, 1)
	s.Require().NoError(m.Close())
}

func (s *sessionTestSuite) TestReauthFailureIsFatal() {
	s.auth.ttl = 150 * time.Millisecond

	fatalCh := make(chan error, 1)
	m := s.newManager(testCreds, WithOnFatal(func(err error) {
		fatalCh <- err
	}))
	s.Require().NoError(m.Start(context.Background()))

	// 首次登录成功后让刷新与重新鉴权都失败
	s.auth.setErrs(errors.New("login rejected"), errors.New("refresh rejected"))

	evt := s.waitEvent(broker.AuthFailedEvent)
	s.Require().NotNil(evt.Session)
	s.Contains(evt.Session.Reason, "login rejected")

	select {
	case err := <-fatalCh:
		s.ErrorContains(err, "login rejected")
	case <-time.After(2 * time.Second):
		s.FailNow("onFatal not invoked")
	}

	s.True(m.Failed())
	_, ok := m.Token()
	s.False(ok)

	_, err := m.AuthHeader(context.Background())
	s.ErrorIs(err, exchange.ErrAuthenticationFailed)

	// 致命失效后刷新协程退出, Close 不会阻塞
	s.Require().NoError(m.Close())
}

func (s *sessionTestSuite) TestAuthLimiter() {
	m := s.newManager(testCreds, WithAuthLimiter(denyLimiter{}))

	err := m.Start(context.Background())
	s.ErrorIs(err, exchange.ErrRateLimitExceeded)

	login, _, _ := s.auth.counts()
	s.Zero(login)
	s.Require().NoError(m.Close())
}

func (s *sessionTestSuite) TestAuthHeaderBeforeStart() {
	m := s.newManager(testCreds)
	_, err := m.AuthHeader(context.Background())
	s.ErrorIs(err, ErrNotStarted)
	s.Require().NoError(m.Close())
}
