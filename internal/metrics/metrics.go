// Package metrics exposes the agent's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	// ResultCompleted labels restarts where both phases succeeded.
	ResultCompleted = "completed"
	// ResultFailed labels restarts where either phase failed.
	ResultFailed = "failed"
)

var (
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostguard",
			Name:      "scans_total",
			Help:      "Log source scans executed, partitioned by source kind.",
		},
		[]string{"source"},
	)

	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostguard",
			Name:      "events_total",
			Help:      "Security events extracted from scans, partitioned by source kind.",
		},
		[]string{"source"},
	)

	AlertsFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostguard",
			Name:      "alerts_fired_total",
			Help:      "Threshold alerts fired, partitioned by source kind.",
		},
		[]string{"source"},
	)

	AlertDeliveriesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hostguard",
			Name:      "alert_deliveries_failed_total",
			Help:      "Per-recipient alert deliveries that failed.",
		},
	)

	RestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostguard",
			Name:      "restarts_total",
			Help:      "Stack restarts executed, partitioned by terminal result.",
		},
		[]string{"result"},
	)

	UnauthorizedAccess = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hostguard",
			Name:      "unauthorized_access_total",
			Help:      "Commands rejected because the sender is not allow-listed.",
		},
	)
)

// Register attaches all agent collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		ScansTotal,
		EventsTotal,
		AlertsFired,
		AlertDeliveriesFailed,
		RestartsTotal,
		UnauthorizedAccess,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
