package log

import (
	"context"
	"sync/atomic"
	"unsafe"
)

type raffleLogger struct {
	logPtr unsafe.Pointer
}

var defaultLogger Logger = &simpleLogger{}
var logger = &raffleLogger{logPtr: unsafe.Pointer(&defaultLogger)}

// Logger can be used to override the logger used by the raffle packages.
// Every call takes the context of the operation being logged so that log tags
// attached with WithLogTag (round number, request id) are carried along.
type Logger interface {
	// Info log
	Info(ctx context.Context, args ...interface{})
	// Infof log
	Infof(ctx context.Context, format string, args ...interface{})
	// Warning log
	Warning(ctx context.Context, args ...interface{})
	// Warningf log
	Warningf(ctx context.Context, format string, args ...interface{})
	// Error log
	Error(ctx context.Context, args ...interface{})
	// Errorf log
	Errorf(ctx context.Context, format string, args ...interface{})
	// Fatal log
	Fatal(ctx context.Context, args ...interface{})
	// Fatalf log
	Fatalf(ctx context.Context, format string, args ...interface{})
	// V returns whether the given verbosity should be logged
	V(level int32) bool
	// WithLogTag returns a context with a log tag
	WithLogTag(ctx context.Context, name string, value interface{}) context.Context
	// Flush the logger
	Flush()
}

func current() Logger {
	p := atomic.LoadPointer(&logger.logPtr)
	if p == nil {
		return NoOpLogger
	}
	return *(*Logger)(p)
}

// SetLogger is used to override the raffle logger. It should be called
// before starting the raffle server
func SetLogger(l Logger) {
	atomic.StorePointer(&logger.logPtr, unsafe.Pointer(&l))
}

// GetLogger returns the logger currently in use
func GetLogger() Logger {
	return current()
}

// Info log
func Info(ctx context.Context, args ...interface{}) {
	current().Info(ctx, args...)
}

// Infof log
func Infof(ctx context.Context, format string, args ...interface{}) {
	current().Infof(ctx, format, args...)
}

// Warning log
func Warning(ctx context.Context, args ...interface{}) {
	current().Warning(ctx, args...)
}

// Warningf log
func Warningf(ctx context.Context, format string, args ...interface{}) {
	current().Warningf(ctx, format, args...)
}

// Error log
func Error(ctx context.Context, args ...interface{}) {
	current().Error(ctx, args...)
}

// Errorf log
func Errorf(ctx context.Context, format string, args ...interface{}) {
	current().Errorf(ctx, format, args...)
}

// Fatal log
func Fatal(ctx context.Context, args ...interface{}) {
	current().Fatal(ctx, args...)
}

// Fatalf log
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	current().Fatalf(ctx, format, args...)
}

// V returns whether the given verbosity should be logged
func V(level int32) bool {
	return current().V(level)
}

// WithLogTag returns a context with a log tag
func WithLogTag(ctx context.Context, name string, value interface{}) context.Context {
	return current().WithLogTag(ctx, name, value)
}

// Flush the logger
func Flush() {
	current().Flush()
}
