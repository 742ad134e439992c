package limiter

type Option func(*Options)

type Options struct {
	// 请求次数限制, 形如 "5m" 周期内允许 N 次
	WsConnectPeriod string
	WsConnectTimes  int
	SnapshotPeriod  string
	SnapshotTimes   int
	AuthPeriod      string
	AuthTimes       int
}

func WithWsConnect(period string, times int) Option {
	return func(o *Options) {
		o.WsConnectPeriod = period
		o.WsConnectTimes = times
	}
}

func WithSnapshot(period string, times int) Option {
	return func(o *Options) {
		o.SnapshotPeriod = period
		o.SnapshotTimes = times
	}
}

func WithAuth(period string, times int) Option {
	return func(o *Options) {
		o.AuthPeriod = period
		o.AuthTimes = times
	}
}
