package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type (
	// ZapCompatibleLogger is the subset of *zap.SugaredLogger that callers log through.
	ZapCompatibleLogger interface {
		Desugar() *zap.Logger
		Level() zapcore.Level
		Named(name string) *zap.SugaredLogger
		Sync() error
		With(args ...interface{}) *zap.SugaredLogger
		WithOptions(opts ...zap.Option) *zap.SugaredLogger

		Debug(args ...interface{})
		Debugf(template string, args ...interface{})
		Debugw(msg string, keysAndValues ...interface{})

		Info(args ...interface{})
		Infof(template string, args ...interface{})
		Infow(msg string, keysAndValues ...interface{})

		Warn(args ...interface{})
		Warnf(template string, args ...interface{})
		Warnw(msg string, keysAndValues ...interface{})

		Error(args ...interface{})
		Errorf(template string, args ...interface{})
		Errorw(msg string, keysAndValues ...interface{})

		Fatal(args ...interface{})
		Fatalf(template string, args ...interface{})
		Fatalw(msg string, keysAndValues ...interface{})
	}

	// Logger is the logger handed to every component in this module.
	Logger interface {
		ZapCompatibleLogger

		// Sublogger returns a logger named "<parent>.<subname>" that shares the parent's outputs.
		Sublogger(subname string) Logger
		// SetLevel changes the minimum level logged. Subloggers share the level of their parent.
		SetLevel(level zapcore.Level)
	}

	impl struct {
		*zap.SugaredLogger
		name  string
		level zap.AtomicLevel
	}
)

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return &impl{
		SugaredLogger: imp.SugaredLogger.Named(subname),
		name:          newName,
		level:         imp.level,
	}
}

func (imp *impl) SetLevel(level zapcore.Level) {
	imp.level.SetLevel(level)
}
