package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ValidationAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listenerd", Name: "validation_accepted_total", Help: "Number of document writes accepted by the validation hooks."},
		[]string{"type"},
	)
	ValidationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listenerd", Name: "validation_rejected_total", Help: "Number of document writes rejected by the validation hooks, by rejection kind."},
		[]string{"type", "kind"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listenerd", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listenerd", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(ValidationAccepted)
	reg.MustRegister(ValidationRejected)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
