package core

import (
	"go.uber.org/zap"
)

// Logger is the minimal structured logging surface the SDK needs.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// NewStdLogger returns the default zap-backed logger, named after the
// SDK so its entries are attributable in a host application's output.
// Options tune the underlying zap logger (fields, hooks, levels).
func NewStdLogger(options ...zap.Option) (Logger, error) {
	logger, err := zap.NewDevelopment(options...)
	if err != nil {
		return nil, err
	}
	return logger.Named("tencentcloud").Sugar(), nil
}
