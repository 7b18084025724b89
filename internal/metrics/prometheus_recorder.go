package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	picks          *prom.CounterVec
	resets         *prom.CounterVec
	flushOutcome   *prom.CounterVec
	flushDuration  prom.Histogram
	availableCount prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.picks = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "namepick",
			Name:      "picks_total",
			Help:      "Pick attempts by gender filter and result",
		}, []string{"gender_filter", "result"})
		pr.resets = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "namepick",
			Name:      "resets_total",
			Help:      "Pool resets by gender filter",
		}, []string{"gender_filter"})
		pr.flushOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "namepick",
			Name:      "state_flushes_total",
			Help:      "Coalesced state flushes by outcome",
		}, []string{"result"})
		pr.flushDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "namepick",
			Name:      "state_flush_duration_seconds",
			Help:      "Duration of coalesced state flushes",
			Buckets:   prom.DefBuckets,
		})
		pr.availableCount = prom.NewGauge(prom.GaugeOpts{
			Namespace: "namepick",
			Name:      "available_participants",
			Help:      "Participants currently available for picking",
		})
		reg.MustRegister(pr.picks, pr.resets, pr.flushOutcome, pr.flushDuration, pr.availableCount)
	})
	return pr
}

func (p *PrometheusRecorder) IncPick(genderFilter string, result ResultLabel) {
	if p == nil || p.picks == nil {
		return
	}
	p.picks.WithLabelValues(genderFilter, string(result)).Inc()
}

func (p *PrometheusRecorder) IncReset(genderFilter string) {
	if p == nil || p.resets == nil {
		return
	}
	p.resets.WithLabelValues(genderFilter).Inc()
}

func (p *PrometheusRecorder) IncFlushOutcome(result ResultLabel) {
	if p == nil || p.flushOutcome == nil {
		return
	}
	p.flushOutcome.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveFlushDuration(d time.Duration) {
	if p == nil || p.flushDuration == nil {
		return
	}
	p.flushDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetAvailableCount(n int) {
	if p == nil || p.availableCount == nil {
		return
	}
	p.availableCount.Set(float64(n))
}
