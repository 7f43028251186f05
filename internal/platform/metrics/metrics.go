package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "meetfix"

// Metrics implements the optional Metrics port of every service.
type Metrics struct {
	votes              *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	outboxPublished    *prometheus.CounterVec
	claims             *prometheus.CounterVec
	remindersScheduled prometheus.Counter
	reminderBatches    prometheus.Histogram
}

// New registers the collectors on reg. Passing nil uses the default registry,
// which is what promhttp.Handler serves.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "event",
			Name:      "votes_total",
			Help:      "Vote ledger writes by category and action.",
		}, []string{"category", "action"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "event",
			Name:      "lifecycle_transitions_total",
			Help:      "Applied event lifecycle transitions.",
		}, []string{"transition"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox rows relayed to the bus.",
		}, []string{"event_type"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bringlist",
			Name:      "claims_total",
			Help:      "Bring item claim attempts by result.",
		}, []string{"result"}),
		remindersScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "reminders_scheduled_total",
			Help:      "Reminders written by the pack-up consumer.",
		}),
		reminderBatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "reminder_batch_size",
			Help:      "Reminders written per packed-up event.",
			Buckets:   []float64{0, 4, 8, 16, 32, 64, 128, 256, 400},
		}),
	}
	for _, collector := range []prometheus.Collector{
		m.votes,
		m.transitions,
		m.outboxPublished,
		m.claims,
		m.remindersScheduled,
		m.reminderBatches,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) VoteRecorded(category string, action string) {
	m.votes.WithLabelValues(category, action).Inc()
}

func (m *Metrics) TransitionRecorded(transition string) {
	m.transitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) OutboxPublished(eventType string) {
	m.outboxPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ClaimRecorded(result string) {
	m.claims.WithLabelValues(result).Inc()
}

func (m *Metrics) RemindersScheduled(count int) {
	if count < 0 {
		count = 0
	}
	m.remindersScheduled.Add(float64(count))
	m.reminderBatches.Observe(float64(count))
}
