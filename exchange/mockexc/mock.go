// Description: 进程内脚本交易所
// 快照内容与鉴权行为都由测试脚本控制, 作为快照源与鉴权器接入,
// 推送帧由 frame.go 的生成器产出, 不依赖任何外部服务。

package mockexc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gotop/statesync/exchange"
	"github.com/go-gotop/statesync/session"
)

var (
	_ exchange.SnapshotProvider = (*MockVenue)(nil)
	_ session.Authenticator     = (*MockVenue)(nil)
)

// ErrSnapshotUnavailable 快照被脚本置为不可用
var ErrSnapshotUnavailable = errors.New("mock venue: snapshot unavailable")

// MockVenue 脚本交易所
type MockVenue struct {
	opts *options

	mux       sync.Mutex
	orders    []exchange.Order
	positions []exchange.Position
	accounts  []exchange.AccountSummary

	snapshotErr error

	seq             int
	current         session.Token
	loginCount      int
	refreshCount    int
	logoutCount     int
	failNextLogin   bool
	failNextRefresh bool
}

func NewMockVenue(opts ...Option) *MockVenue {
	o := &options{
		tokenTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &MockVenue{opts: o}
}

// SetOrders 脚本设置订单快照
func (v *MockVenue) SetOrders(orders ...exchange.Order) {
	v.mux.Lock()
	defer v.mux.Unlock()
	v.orders = append([]exchange.Order(nil), orders...)
}

// SetPositions 脚本设置仓位快照
func (v *MockVenue) SetPositions(positions ...exchange.Position) {
	v.mux.Lock()
	defer v.mux.Unlock()
	v.positions = append([]exchange.Position(nil), positions...)
}

// SetAccounts 脚本设置账户摘要快照
func (v *MockVenue) SetAccounts(accounts ...exchange.AccountSummary) {
	v.mux.Lock()
	defer v.mux.Unlock()
	v.accounts = append([]exchange.AccountSummary(nil), accounts...)
}

// FailSnapshots 令快照接口返回错误, 传 nil 恢复
func (v *MockVenue) FailSnapshots(err error) {
	v.mux.Lock()
	defer v.mux.Unlock()
	v.snapshotErr = err
}

func (v *MockVenue) ActiveOrders(_ context.Context, _ string) ([]exchange.Order, error) {
	v.mux.Lock()
	defer v.mux.Unlock()
	if v.snapshotErr != nil {
		return nil, v.snapshotErr
	}
	return append([]exchange.Order(nil), v.orders...), nil
}

func (v *MockVenue) Positions(_ context.Context, _ string) ([]exchange.Position, error) {
	v.mux.Lock()
	defer v.mux.Unlock()
	if v.snapshotErr != nil {
		return nil, v.snapshotErr
	}
	return append([]exchange.Position(nil), v.positions...), nil
}

func (v *MockVenue) AccountSummaries(_ context.Context, _ string) ([]exchange.AccountSummary, error) {
	v.mux.Lock()
	defer v.mux.Unlock()
	if v.snapshotErr != nil {
		return nil, v.snapshotErr
	}
	return append([]exchange.AccountSummary(nil), v.accounts...), nil
}

// Login 用凭证换取令牌, 令牌序号确定可预期
func (v *MockVenue) Login(_ context.Context, creds session.Credentials) (session.Token, error) {
	v.mux.Lock()
	defer v.mux.Unlock()
	if creds.Empty() {
		return session.Token{}, errors.New("mock venue: credentials required")
	}
	if v.failNextLogin {
		v.failNextLogin = false
		return session.Token{}, errors.New("mock venue: login rejected")
	}
	v.loginCount++
	return v.issue(), nil
}

// Refresh 校验刷新令牌必须是最近一次签发的
func (v *MockVenue) Refresh(_ context.Context, refreshToken string) (session.Token, error) {
	v.mux.Lock()
	defer v.mux.Unlock()
	if v.failNextRefresh {
		v.failNextRefresh = false
		return session.Token{}, errors.New("mock venue: refresh rejected")
	}
	if refreshToken == "" || refreshToken != v.current.RefreshToken {
		return session.Token{}, errors.New("mock venue: unknown refresh token")
	}
	v.refreshCount++
	return v.issue(), nil
}

func (v *MockVenue) Logout(_ context.Context, token session.Token) error {
	v.mux.Lock()
	defer v.mux.Unlock()
	v.logoutCount++
	if token.AccessToken == v.current.AccessToken {
		v.current = session.Token{}
	}
	return nil
}

// FailNextLogin 下一次 Login 返回错误, 触发后自动复位
func (v *MockVenue) FailNextLogin() {
	v.mux.Lock()
	defer v.mux.Unlock()
	v.failNextLogin = true
}

// FailNextRefresh 下一次 Refresh 返回错误, 触发后自动复位
func (v *MockVenue) FailNextRefresh() {
	v.mux.Lock()
	defer v.mux.Unlock()
	v.failNextRefresh = true
}

func (v *MockVenue) LoginCount() int {
	v.mux.Lock()
	defer v.mux.Unlock()
	return v.loginCount
}

func (v *MockVenue) RefreshCount() int {
	v.mux.Lock()
	defer v.mux.Unlock()
	return v.refreshCount
}

func (v *MockVenue) LogoutCount() int {
	v.mux.Lock()
	defer v.mux.Unlock()
	return v.logoutCount
}

func (v *MockVenue) issue() session.Token {
	v.seq++
	v.current = session.Token{
		AccessToken:  fmt.Sprintf("mock-access-%d", v.seq),
		RefreshToken: fmt.Sprintf("mock-refresh-%d", v.seq),
		ExpiresAt:    time.Now().Add(v.opts.tokenTTL).UnixMilli(),
	}
	return v.current
}
