// Package metrics holds the prometheus counters the portal exports on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the portal counters. A nil *Recorder is valid and
// records nothing, so tests can leave it out.
type Recorder struct {
	statusUpdates *prometheus.CounterVec
	pushes        *prometheus.CounterVec
	gateway       *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_status_updates_total",
			Help: "Complaint status updates by result.",
		}, []string{"result"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_push_notifications_total",
			Help: "Push notifications attempted after a status update, by result.",
		}, []string{"result"}),
		gateway: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_gateway_requests_total",
			Help: "Backend API calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	reg.MustRegister(r.statusUpdates, r.pushes, r.gateway)
	return r
}

// StatusUpdate counts one status update ("ok", "failed", "in_flight").
func (r *Recorder) StatusUpdate(result string) {
	if r == nil {
		return
	}
	r.statusUpdates.WithLabelValues(result).Inc()
}

// Push counts one notification attempt ("sent", "failed", "skipped").
func (r *Recorder) Push(result string) {
	if r == nil {
		return
	}
	r.pushes.WithLabelValues(result).Inc()
}

// Gateway counts one backend call. outcome is "ok", "business",
// "transport" or "unauthorized".
func (r *Recorder) Gateway(operation, outcome string) {
	if r == nil {
		return
	}
	r.gateway.WithLabelValues(operation, outcome).Inc()
}
