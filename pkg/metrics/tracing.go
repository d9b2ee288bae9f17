package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer is a segment of the New Relic transaction carried by a context.
// A nil *MethodTracer is valid and does nothing, so callers never need to check
// whether tracing is enabled.
type MethodTracer struct {
	ctx   context.Context
	name  string
	start time.Time

	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// TraceMethodCall starts a "<struct> <method>" segment. It returns nil when ctx
// carries no transaction.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	name := fmt.Sprintf("%s %s", structOrPackageName, methodName)
	return &MethodTracer{
		ctx:   ctx,
		name:  fmt.Sprintf("Custom/%s/%s", structOrPackageName, methodName),
		start: time.Now(),
		txn:   txn,
		seg:   txn.StartSegment(name),
	}
}

func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}
	t.seg.AddAttribute(key, value)
}

// OnError reports err on the transaction. Errors matching one of expected are
// attached to the segment as an attribute instead, since they are part of
// normal operation (eg. a lost commit race).
func (t *MethodTracer) OnError(err error, expected ...error) {
	if t == nil || err == nil {
		return
	}

	for _, e := range expected {
		if errors.Is(err, e) {
			t.seg.AddAttribute("expected_error", err.Error())
			return
		}
	}

	t.txn.NoticeError(err)
}

// End closes the segment and records its duration as a custom metric.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.seg.End()
	RecordDuration(t.ctx, t.name, time.Since(t.start))
}
