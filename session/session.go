// Description: 会话令牌管理
// 适用于需要 Bearer 鉴权的交易所接入, 凭证换取令牌后由管理器负责
// 在到期前主动刷新。刷新失败立即做一次完整重新鉴权, 再失败判定为致命,
// 不做无限重试, 由上层决定如何处置对应的连接。

package session

import (
	"context"
	"net/http"
	"time"
)

// Credentials 账户鉴权凭证
type Credentials struct {
	// APIKey 接口密钥
	APIKey string
	// APISecret 接口密钥对应的签名私钥
	APISecret string
	// Passphrase 部分交易所要求的口令
	Passphrase string
}

// Empty 凭证为空时跳过鉴权, 以公共身份接入
func (c Credentials) Empty() bool {
	return c.APIKey == "" && c.APISecret == ""
}

// Token 会话令牌
type Token struct {
	// AccessToken 访问令牌
	AccessToken string `json:"access_token"`
	// RefreshToken 刷新令牌
	RefreshToken string `json:"refresh_token"`
	// ExpiresAt 过期时间, 毫秒时间戳
	ExpiresAt int64 `json:"expires_at"`
}

// ExpiresIn 距离过期的剩余时长
func (t Token) ExpiresIn() time.Duration {
	return time.Until(time.UnixMilli(t.ExpiresAt))
}

// Usable 在 buffer 窗口之外仍然有效
func (t Token) Usable(buffer time.Duration) bool {
	return t.AccessToken != "" && t.ExpiresIn() > buffer
}

// Authenticator 交易所鉴权接口, 由各交易所接入层实现
type Authenticator interface {
	// Login 用凭证换取令牌
	Login(ctx context.Context, creds Credentials) (Token, error)
	// Refresh 用刷新令牌换取新令牌
	Refresh(ctx context.Context, refreshToken string) (Token, error)
	// Logout 注销令牌
	Logout(ctx context.Context, token Token) error
}

// Store 令牌持久化, 进程重启或多副本部署时复用未过期的令牌
type Store interface {
	Save(ctx context.Context, instanceID string, token Token) error
	Load(ctx context.Context, instanceID string) (Token, bool, error)
	Delete(ctx context.Context, instanceID string) error
}

// Session 单账户实例的会话管理
type Session interface {
	// Start 完成初次鉴权并启动刷新调度
	Start(ctx context.Context) error
	// Token 当前令牌
	Token() (Token, bool)
	// AuthHeader 携带当前令牌的请求头, 供连接层在每次拨号时取用
	AuthHeader(ctx context.Context) (http.Header, error)
	// Failed 会话是否已致命失效
	Failed() bool
	// Close 注销令牌并停止调度
	Close() error
}
