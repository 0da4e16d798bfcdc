package journal

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger development-логгер приложения. В режиме дебага пишет и debug,
// иначе начиная с info. Если j не nil, записи info и выше дублируются в журнал.
func NewLogger(debug bool, j *Journal) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if !debug {
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	if j == nil {
		return logger, nil
	}
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, j.Core(zapcore.InfoLevel))
	})), nil
}
