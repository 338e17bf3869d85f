package logger

import (
	"sync"

	"go.uber.org/zap"
)

type ZapLogger struct {
	log   *zap.SugaredLogger
	level zap.AtomicLevel
}

var (
	zapLogger *ZapLogger
	mu        sync.RWMutex
)

func NewLogger(config zap.Config) (*ZapLogger, error) {
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	defer logger.Sync() //nolint
	logger = logger.WithOptions(zap.AddCallerSkip(2))

	l := &ZapLogger{log: logger.Sugar(), level: config.Level}
	mu.Lock()
	zapLogger = l
	mu.Unlock()
	return l, nil
}

// NewNop replaces the global logger with one that discards everything.
func NewNop() *ZapLogger {
	l := &ZapLogger{log: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
	mu.Lock()
	zapLogger = l
	mu.Unlock()
	return l
}

func GetLogger() *ZapLogger {
	mu.RLock()
	defer mu.RUnlock()
	if zapLogger == nil {
		panic("logger not initialized")
	}
	return zapLogger
}

func (l *ZapLogger) Panic(message string, values ...any) {
	l.log.Panicw(message, values...)
}

func (l *ZapLogger) Fatal(error error, values ...any) {
	l.log.Fatalw(error.Error(), values...)
}

func (l *ZapLogger) Info(message string, values ...any) {
	l.log.Infow(message, values...)
}

func (l *ZapLogger) Warn(message string, values ...any) {
	l.log.Warnw(message, values...)
}

func (l *ZapLogger) Error(message string, values ...any) {
	l.log.Errorw(message, values...)
}

func (l *ZapLogger) Debug(message string, values ...any) {
	l.log.Debugw(message, values...)
}

func (l *ZapLogger) Printf(format string, args ...interface{}) {
	l.log.Infof(format, args...)
}
