package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagegen_generation_requests_total",
		Help: "Generation requests by terminal outcome",
	}, []string{"outcome"})

	CreditsCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagegen_credits_charged_total",
		Help: "Credits deducted for generations",
	})

	CreditsRefunded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "imagegen_credits_refunded_total",
		Help: "Credits returned after failed generations",
	})

	GatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "imagegen_gateway_latency_seconds",
		Help:    "Wall time of gateway generation calls",
		Buckets: []float64{0.25, 0.5, 1, 1.5, 2, 3, 5},
	})

	ReportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "imagegen_report_runs_total",
		Help: "Weekly report runs by outcome",
	}, []string{"outcome"})
)
