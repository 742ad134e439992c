package broker

import (
	"github.com/go-kratos/kratos/v2/log"
)

type Option func(*options)

type options struct {
	logger     *log.Helper // 日志记录器
	chanBuffer int         // 通道订阅默认缓冲
}

func defaultOptions() *options {
	return &options{
		logger:     log.NewHelper(log.DefaultLogger),
		chanBuffer: 256,
	}
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.NewHelper(logger)
	}
}

func WithChanBuffer(n int) Option {
	return func(o *options) {
		o.chanBuffer = n
	}
}
