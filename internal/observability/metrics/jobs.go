// Package metrics defines the settlement metric vocabulary emitted through a statsd.Sink.
package metrics

import (
	"time"

	obserrors "github.com/interpay/interpay-api/internal/observability/errors"
	"github.com/interpay/interpay-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// JobMetric captures a settlement job reaching a status.
type JobMetric struct {
	Status   string
	Result   string
	Attempts int
	Duration time.Duration
	Err      error
}

// EmitJobLifecycle emits job transition counters and, for terminal jobs, their duration.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"status": in.Status,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("job.transition", 1, tags)
	if in.Attempts > 0 {
		sink.Count("job.poll_attempts", int64(in.Attempts), CloneTags(tags))
	}
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, CloneTags(tags))
	}
}

// NegotiationMetric captures one grant request made by the negotiator.
type NegotiationMetric struct {
	Stage    string
	TypeName string
	Result   string
	Err      error
}

// EmitNegotiation counts a single grant request attempt.
func EmitNegotiation(sink statsd.Sink, in NegotiationMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"stage":  in.Stage,
		"type":   in.TypeName,
		"result": in.Result,
	}
	if in.Err != nil {
		tags["error_class"] = obserrors.Classify(in.Err)
	}
	sink.Count("grant.request", 1, tags)
}

// EmitRunOutcome counts the synchronous outcome of a settlement run.
func EmitRunOutcome(sink statsd.Sink, outcome, stage string) {
	if sink == nil {
		return
	}
	tags := map[string]string{"outcome": outcome}
	if stage != "" {
		tags["stage"] = stage
	}
	sink.Count("run.outcome", 1, tags)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
