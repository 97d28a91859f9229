package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askly", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askly", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	Votes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askly", Name: "votes_total", Help: "Vote transitions by requested action and outcome (accepted|rejected|busy|error)."},
		[]string{"action", "result"},
	)
	BestEffortFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askly", Name: "best_effort_failures_total", Help: "Fire-and-forget side effects that failed and were dropped."},
		[]string{"task"},
	)
	CounterDriftClamped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askly", Name: "counter_drift_clamped_total", Help: "Counter decrements that would have gone negative and were clamped at zero."},
		[]string{"collection"},
	)
	CascadeDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "askly", Name: "cascade_deleted_total", Help: "Documents removed by cascading question deletion."},
		[]string{"collection"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Votes)
	reg.MustRegister(BestEffortFailures)
	reg.MustRegister(CounterDriftClamped)
	reg.MustRegister(CascadeDeleted)
}
