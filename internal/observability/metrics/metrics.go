package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venus_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "venus_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	ticketOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venus_ticket_operations_total",
		Help: "Ticket lifecycle operations by operation and result",
	}, []string{"op", "result"})

	ticketTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venus_ticket_status_transitions_total",
		Help: "Ticket status changes by from/to status",
	}, []string{"from", "to"})

	accountOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venus_account_operations_total",
		Help: "User account operations by operation and result",
	}, []string{"op", "result"})
)

func ObserveHTTPRequest(method, route, status string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// ObserveTicketOp counts a ticket operation; result is "ok" or an error kind.
func ObserveTicketOp(op, result string) {
	ticketOps.WithLabelValues(op, result).Inc()
}

func ObserveTransition(from, to string) {
	if from == to {
		return
	}
	ticketTransitions.WithLabelValues(from, to).Inc()
}

func ObserveAccountOp(op, result string) {
	accountOps.WithLabelValues(op, result).Inc()
}
