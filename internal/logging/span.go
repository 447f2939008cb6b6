package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type spanIDs struct {
	traceID string
	spanID  string
}

// Span times a coordinator operation and logs its completion.
type Span struct {
	name   string
	ids    spanIDs
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx. The trace id is inherited from the
// parent span, else taken from the request id, else generated.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	parent, hasParent := ctx.Value(spanKey).(spanIDs)

	ids := spanIDs{traceID: parent.traceID, spanID: uuid.NewString()}
	if ids.traceID == "" {
		ids.traceID = RequestIDFromContext(ctx)
	}
	if ids.traceID == "" {
		ids.traceID = uuid.NewString()
	}
	if !hasParent {
		logger = logger.With(slog.String("trace_id", ids.traceID))
	}

	logger = logger.With(
		slog.String("span_id", ids.spanID),
		slog.String("span_name", name),
	)
	if hasParent {
		logger = logger.With(slog.String("parent_span_id", parent.spanID))
	}

	ctx = context.WithValue(ctx, spanKey, ids)
	ctx = WithLogger(ctx, logger)

	return ctx, &Span{name: name, ids: ids, logger: logger, start: time.Now()}
}

// TraceID returns the trace the span belongs to.
func (s *Span) TraceID() string {
	if s == nil {
		return ""
	}
	return s.ids.traceID
}

// End emits a completion entry at debug level.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Debug("span completed", slog.Duration("duration", time.Since(s.start)))
}
