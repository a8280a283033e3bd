// Package tracer is a small tracing facade so services can emit spans without
// importing OpenTelemetry throughout.
//
// Implementations:
//   - NoopTracer: tests
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanSessionCreate   = "session.create"
	SpanSessionValidate = "session.validate"
	SpanSessionClose    = "session.close"
	SpanSessionRevoke   = "session.revoke_all"
	SpanSessionStats    = "session.stats"
	SpanSweep           = "session.sweep"
)

// Attribute keys.
const (
	AttrSessionID    = "session.id"
	AttrCredentialID = "session.credential_id"
	AttrOutcome      = "session.outcome"
	AttrBump         = "session.bump_activity"
	AttrCount        = "session.count"
	AttrCacheHit     = "cache.hit"
)
