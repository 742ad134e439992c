package mockexc

import "time"

type options struct {
	// tokenTTL 签发令牌的有效期
	tokenTTL time.Duration
}

type Option func(*options)

// WithTokenTTL 设置签发令牌的有效期, 刷新测试用短有效期
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.tokenTTL = ttl
	}
}
