// Package metrics exposes the service's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the pipeline counters. A nil Recorder is valid and
// records nothing.
type Recorder struct {
	submissions *prometheus.CounterVec
	rejections  prometheus.Counter
}

// New registers the pipeline counters on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carbonmint",
			Name:      "submissions_total",
			Help:      "Pipeline submissions by operation and terminal status.",
		}, []string{"operation", "status"}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carbonmint",
			Name:      "signing_rejections_total",
			Help:      "Signing attempts rejected by the wallet or its user.",
		}),
	}
	reg.MustRegister(r.submissions, r.rejections)
	return r
}

// ObserveSubmission counts one finished pipeline run.
func (r *Recorder) ObserveSubmission(operation, status string) {
	if r == nil {
		return
	}
	r.submissions.WithLabelValues(operation, status).Inc()
}

// ObserveRejection counts one declined signing attempt.
func (r *Recorder) ObserveRejection() {
	if r == nil {
		return
	}
	r.rejections.Inc()
}
