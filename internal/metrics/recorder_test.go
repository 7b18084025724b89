package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder_SafeOnNilValues(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncPick("female", ResultSuccess)
	r.IncReset("unknown")
	r.IncFlushOutcome(ResultFailure)
	r.ObserveFlushDuration(time.Millisecond)
	r.SetAvailableCount(3)
}

func TestPrometheusRecorder_CountsPicks(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.IncPick("female", ResultSuccess)
	r.IncPick("female", ResultSuccess)
	r.IncPick("male", ResultExhausted)

	require.Equal(t, 2.0, testutil.ToFloat64(
		r.picks.WithLabelValues("female", string(ResultSuccess))))
	require.Equal(t, 1.0, testutil.ToFloat64(
		r.picks.WithLabelValues("male", string(ResultExhausted))))
}

func TestPrometheusRecorder_GaugeTracksAvailable(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.SetAvailableCount(17)
	require.Equal(t, 17.0, testutil.ToFloat64(r.availableCount))

	r.SetAvailableCount(4)
	require.Equal(t, 4.0, testutil.ToFloat64(r.availableCount))
}

func TestPrometheusRecorder_NilReceiverIsSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.IncPick("female", ResultSuccess)
	r.IncFlushOutcome(ResultSuccess)
	r.ObserveFlushDuration(time.Second)
	r.SetAvailableCount(1)
}
