// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

import "go.uber.org/zap"

// Logger is a thin field-based wrapper around *zap.Logger, giving this
// package's call sites structured fields instead of a fluent builder chain.
type Logger struct {
	z *zap.Logger
}

// NewLogger wraps z. A nil z is treated as a no-op logger.
func NewLogger(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// NewNopLogger returns a Logger that discards everything, for tests and
// callers that don't want pipeline diagnostics.
func NewNopLogger() *Logger {
	return &Logger{z: zap.NewNop()}
}

// With returns a child Logger carrying fields on every subsequent call,
// the usual way to attach a frame sequence's id/traceID to a worker's
// logging for the duration of one reduce task.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{z: l.z.With(fields...)}
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Sync flushes any buffered log entries, forwarding to the underlying
// zap.Logger.
func (l *Logger) Sync() error { return l.z.Sync() }
