package metrics

import "time"

// ResultLabel enumerates per-unit compile result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultProblem ResultLabel = "problem"
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines observability hooks for compile metrics. Implementations
// may forward to Prometheus or elsewhere; the NoopRecorder allows optional
// injection.
type Recorder interface {
	ObserveUnitDuration(presence string, d time.Duration)
	IncUnitResult(result ResultLabel)
	ObserveInstallDuration(d time.Duration)
	IncBatchOutcome(outcome string) // outcome: success|problems|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveUnitDuration(string, time.Duration) {}
func (NoopRecorder) IncUnitResult(ResultLabel)                 {}
func (NoopRecorder) ObserveInstallDuration(time.Duration)      {}
func (NoopRecorder) IncBatchOutcome(string)                    {}
