// Package metrics records assembler and dedup counters through the
// OpenTelemetry metric API. A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Flush and rejection reasons.
const (
	ReasonDuplicate = "duplicate"
	ReasonDrain     = "drain"
	ReasonExhausted = "exhausted"
	ReasonMalformed = "malformed"
)

// Recorder holds the tool's counters.
type Recorder struct {
	fragments  metric.Int64Counter
	completed  metric.Int64Counter
	flushed    metric.Int64Counter
	suppressed metric.Int64Counter
	rejected   metric.Int64Counter
}

// NewRecorder creates the counters on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	r := &Recorder{}
	var err error

	if r.fragments, err = meter.Int64Counter("auditdedup.fragments",
		metric.WithDescription("Audit fragments submitted to the assembler")); err != nil {
		return nil, fmt.Errorf("creating fragments counter: %w", err)
	}
	if r.completed, err = meter.Int64Counter("auditdedup.events.completed",
		metric.WithDescription("Events that reached completion")); err != nil {
		return nil, fmt.Errorf("creating completed counter: %w", err)
	}
	if r.flushed, err = meter.Int64Counter("auditdedup.events.flushed",
		metric.WithDescription("Events flushed without completing")); err != nil {
		return nil, fmt.Errorf("creating flushed counter: %w", err)
	}
	if r.suppressed, err = meter.Int64Counter("auditdedup.events.suppressed",
		metric.WithDescription("Completed events dropped as duplicates")); err != nil {
		return nil, fmt.Errorf("creating suppressed counter: %w", err)
	}
	if r.rejected, err = meter.Int64Counter("auditdedup.fragments.rejected",
		metric.WithDescription("Fragments the assembler could not attach")); err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	return r, nil
}

// Fragment counts one submitted fragment.
func (r *Recorder) Fragment(recordType string) {
	if r == nil {
		return
	}
	r.fragments.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("type", recordType)))
}

// Completed counts one completed event.
func (r *Recorder) Completed() {
	if r == nil {
		return
	}
	r.completed.Add(context.Background(), 1)
}

// Flushed counts one event flushed for reason.
func (r *Recorder) Flushed(reason string) {
	if r == nil {
		return
	}
	r.flushed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}

// Suppressed counts one completed event dropped as a duplicate.
func (r *Recorder) Suppressed() {
	if r == nil {
		return
	}
	r.suppressed.Add(context.Background(), 1)
}

// Rejected counts one fragment rejected for reason.
func (r *Recorder) Rejected(reason string) {
	if r == nil {
		return
	}
	r.rejected.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", reason)))
}
