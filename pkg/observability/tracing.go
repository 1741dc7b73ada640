package observability

import (
	"context"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray. A disabled tracer runs the traced code untouched, so it
// is safe outside Lambda and in tests.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a tracer for serviceName
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{serviceName: serviceName, enabled: enabled}
}

// Enabled reports whether segments are recorded
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}

// Trace runs fn inside a subsegment named name. Without a parent segment in
// ctx a new segment is opened instead.
func (t *Tracer) Trace(ctx context.Context, name string, fn func(context.Context) error) error {
	if !t.Enabled() {
		return fn(ctx)
	}

	var seg *xray.Segment
	if xray.GetSegment(ctx) == nil {
		ctx, seg = xray.BeginSegment(ctx, t.serviceName+"."+name)
	} else {
		ctx, seg = xray.BeginSubsegment(ctx, name)
	}

	err := fn(ctx)
	seg.Close(err)
	return err
}

// Annotate adds an indexed annotation to the current segment
func (t *Tracer) Annotate(ctx context.Context, key, value string) {
	if !t.Enabled() {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}

// Middleware opens a segment per HTTP request
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	if !t.Enabled() {
		return next
	}
	return xray.Handler(xray.NewFixedSegmentNamer(t.serviceName), next)
}
