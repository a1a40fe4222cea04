package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imaginx_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "imaginx_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	TrainingSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imaginx_training_submissions_total",
		Help: "Training submissions by result",
	}, []string{"result"})

	TrainingCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imaginx_training_callbacks_total",
		Help: "Training status reports by source and outcome",
	}, []string{"source", "outcome"})

	Generations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imaginx_generations_total",
		Help: "Generation requests by model family and result",
	}, []string{"family", "result"})

	ArtifactsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imaginx_artifacts_persisted_total",
		Help: "Generated artifacts persisted by result",
	}, []string{"result"})

	ProviderDuration = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name: "imaginx_provider_call_seconds",
		Help: "Latency of calls to the inference provider",
	}, []string{"operation"})

	TrainingOrphans = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imaginx_training_sync_orphans_total",
		Help: "Provider trainings with no local job found during sync",
	})
)

// Result labels a counter with "ok" or "error".
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
