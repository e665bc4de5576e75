package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue sums every series of the named family whose labels contain want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue series
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.StatusUpdate("ok")
	r.StatusUpdate("ok")
	r.StatusUpdate("failed")
	r.Push("failed")
	r.Gateway("list_complaints", "unauthorized")

	if got := counterValue(t, reg, "portal_status_updates_total", map[string]string{"result": "ok"}); got != 2 {
		t.Fatalf("status updates ok = %v, want 2", got)
	}
	if got := counterValue(t, reg, "portal_push_notifications_total", map[string]string{"result": "failed"}); got != 1 {
		t.Fatalf("push failed = %v, want 1", got)
	}
	got := counterValue(t, reg, "portal_gateway_requests_total",
		map[string]string{"operation": "list_complaints", "outcome": "unauthorized"})
	if got != 1 {
		t.Fatalf("gateway unauthorized = %v, want 1", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.StatusUpdate("ok")
	r.Push("sent")
	r.Gateway("login", "ok")
}
