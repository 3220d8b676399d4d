package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// Logf logs progress messages, shown only with the verbose flag
func (rcc *rootCmdConfig) Logf(format string, a ...interface{}) {
	if rcc.logger == nil {
		return
	}
	rcc.logger.Sugar().Debugf(format, a...)
}

func (rcc *rootCmdConfig) sync() {
	if rcc.logger != nil {
		_ = rcc.logger.Sync()
	}
}
