package log

import (
	"context"
	"fmt"

	"github.com/cockroachdb/cockroach/pkg/util/log"
)

// simpleLogger forwards to the cockroach logging package. Depth is bumped by
// two so that file:line points at the caller of the package level function.
type simpleLogger struct{}

const callerDepth = 2

func (s *simpleLogger) Info(ctx context.Context, args ...interface{}) {
	log.InfofDepth(ctx, callerDepth, "%s", fmt.Sprint(args...))
}

func (s *simpleLogger) Infof(ctx context.Context, format string, args ...interface{}) {
	log.InfofDepth(ctx, callerDepth, format, args...)
}

func (s *simpleLogger) Warning(ctx context.Context, args ...interface{}) {
	log.WarningfDepth(ctx, callerDepth, "%s", fmt.Sprint(args...))
}

func (s *simpleLogger) Warningf(ctx context.Context, format string, args ...interface{}) {
	log.WarningfDepth(ctx, callerDepth, format, args...)
}

func (s *simpleLogger) Error(ctx context.Context, args ...interface{}) {
	log.ErrorfDepth(ctx, callerDepth, "%s", fmt.Sprint(args...))
}

func (s *simpleLogger) Errorf(ctx context.Context, format string, args ...interface{}) {
	log.ErrorfDepth(ctx, callerDepth, format, args...)
}

func (s *simpleLogger) Fatal(ctx context.Context, args ...interface{}) {
	log.FatalfDepth(ctx, callerDepth, "%s", fmt.Sprint(args...))
}

func (s *simpleLogger) Fatalf(ctx context.Context, format string, args ...interface{}) {
	log.FatalfDepth(ctx, callerDepth, format, args...)
}

func (s *simpleLogger) V(level int32) bool {
	return log.V(level)
}

func (s *simpleLogger) WithLogTag(ctx context.Context, name string, value interface{}) context.Context {
	return log.WithLogTag(ctx, name, value)
}

func (s *simpleLogger) Flush() {
	log.Flush()
}
