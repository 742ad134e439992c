package kafka

import "github.com/go-kratos/kratos/v2/log"

// Logger 将 kafka-go 的日志接到 kratos
type Logger struct {
	logger *log.Helper
}

func NewLogger(logger log.Logger) *Logger {
	return &Logger{logger: log.NewHelper(logger)}
}

func (l *Logger) Printf(msg string, args ...interface{}) {
	l.logger.Infof(msg, args...)
}

type ErrorLogger struct {
	logger *log.Helper
}

func NewErrorLogger(logger log.Logger) *ErrorLogger {
	return &ErrorLogger{logger: log.NewHelper(logger)}
}

func (l *ErrorLogger) Printf(msg string, args ...interface{}) {
	l.logger.Errorf(msg, args...)
}
