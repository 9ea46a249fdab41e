// Package metrics exposes Prometheus instrumentation for the tracker.
package metrics

import (
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements types.Metrics with Prometheus collectors.
type Metrics struct {
	EventsLogged          *prometheus.CounterVec
	LogFailures           prometheus.Counter
	RetentionDeletedTotal prometheus.Counter
	CodeChangesTotal      prometheus.Counter
	ActiveActorCount      prometheus.Gauge
}

// New registers the tracker collectors on reg. A nil registerer uses the
// default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		EventsLogged: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_events_logged_total",
			Help: "Total number of audit records appended, by action",
		}, []string{"action"}),
		LogFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tracker_log_failures_total",
			Help: "Total number of audit records that could not be stored",
		}),
		RetentionDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tracker_retention_deleted_total",
			Help: "Total number of audit records removed by the retention sweep",
		}),
		CodeChangesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tracker_code_changes_total",
			Help: "Total number of file modifications detected by the code scan",
		}),
		ActiveActorCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_active_actors",
			Help: "Number of actors active within the presence window at the last query",
		}),
	}
}

var _ types.Metrics = (*Metrics)(nil)

// EventLogged counts a stored record. Configuration changes use the option
// name as action, so every action outside the fixed vocabulary is counted
// under OptionUpdatedLabel.
func (m *Metrics) EventLogged(action string) {
	m.EventsLogged.WithLabelValues(actionLabel(action)).Inc()
}

// LogFailed counts a record that could not be stored.
func (m *Metrics) LogFailed() {
	m.LogFailures.Inc()
}

// RetentionDeleted adds the rows removed by one sweep.
func (m *Metrics) RetentionDeleted(count int) {
	if count > 0 {
		m.RetentionDeletedTotal.Add(float64(count))
	}
}

// CodeChanges adds the modifications detected by one scan.
func (m *Metrics) CodeChanges(count int) {
	if count > 0 {
		m.CodeChangesTotal.Add(float64(count))
	}
}

// ActiveActors sets the active actor gauge.
func (m *Metrics) ActiveActors(count int) {
	m.ActiveActorCount.Set(float64(count))
}

var knownActions = func() map[string]struct{} {
	out := make(map[string]struct{})
	for _, action := range types.KnownActions() {
		out[action] = struct{}{}
	}
	return out
}()

// OptionUpdatedLabel is the action label shared by all option changes.
const OptionUpdatedLabel = "option_updated"

func actionLabel(action string) string {
	if _, ok := knownActions[action]; ok {
		return action
	}
	return OptionUpdatedLabel
}
