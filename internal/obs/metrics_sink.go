package obs

import "github.com/maintops/go-maint-auth/audit"

// MetricsSink mirrors security-relevant audit events into counters, so
// lockouts and reuse detections are visible on dashboards without parsing
// the audit stream.
type MetricsSink struct{}

func NewMetricsSink() MetricsSink {
	return MetricsSink{}
}

func (MetricsSink) Record(event audit.Event) {
	switch event.Kind {
	case audit.KindLoginBruteforce:
		LockoutsTotal.Inc()
	case audit.KindSecurityAlert:
		ReuseDetectedTotal.Inc()
	}
}
