// Package metrics defines the observability hooks for selection and
// persistence activity, with a no-op default and a Prometheus
// implementation.
package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess   ResultLabel = "success"
	ResultFailure   ResultLabel = "failure"
	ResultExhausted ResultLabel = "exhausted"
)

// Recorder defines observability hooks for pick and flush metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe for nil receivers when using the NoopRecorder (allowing
// optional injection).
type Recorder interface {
	IncPick(genderFilter string, result ResultLabel)
	IncReset(genderFilter string)
	IncFlushOutcome(result ResultLabel)
	ObserveFlushDuration(d time.Duration)
	SetAvailableCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) IncPick(string, ResultLabel)        {}
func (NoopRecorder) IncReset(string)                    {}
func (NoopRecorder) IncFlushOutcome(ResultLabel)        {}
func (NoopRecorder) ObserveFlushDuration(time.Duration) {}
func (NoopRecorder) SetAvailableCount(int)              {}
