package log

import "context"

type noOpLogger struct{}

func (noOpLogger) Info(context.Context, ...interface{}) {}

func (noOpLogger) Infof(context.Context, string, ...interface{}) {}

func (noOpLogger) Warning(context.Context, ...interface{}) {}

func (noOpLogger) Warningf(context.Context, string, ...interface{}) {}

func (noOpLogger) Error(context.Context, ...interface{}) {}

func (noOpLogger) Errorf(context.Context, string, ...interface{}) {}

func (noOpLogger) Fatal(context.Context, ...interface{}) {}

func (noOpLogger) Fatalf(context.Context, string, ...interface{}) {}

func (noOpLogger) V(int32) bool {
	return false
}

func (noOpLogger) WithLogTag(ctx context.Context, _ string, _ interface{}) context.Context {
	return ctx
}

func (noOpLogger) Flush() {}

// NoOpLogger discards everything. It is used when the raffle is embedded in a
// process which does its own logging.
var NoOpLogger Logger = noOpLogger{}
