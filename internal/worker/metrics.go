package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redaction_jobs_total",
			Help: "Jobs the worker finished, by terminal result.",
		},
		[]string{"result"},
	)
	storeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "redaction_store_errors_total",
			Help: "Job store operations that failed and were degraded to log-only.",
		},
	)
)

func init() {
	prometheus.MustRegister(jobsProcessed, storeErrors)
}
