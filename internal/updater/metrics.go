package updater

import "github.com/prometheus/client_golang/prometheus"

// MetricsPublisher counts coordinator events by name.
type MetricsPublisher struct {
	events *prometheus.CounterVec
}

// NewMetricsPublisher registers swupdate_updater_events_total with reg.
// A nil reg uses prometheus.DefaultRegisterer. Registering twice against the
// same registry reuses the existing collector.
func NewMetricsPublisher(reg prometheus.Registerer) (*MetricsPublisher, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swupdate",
			Subsystem: "updater",
			Name:      "events_total",
			Help:      "Total coordinator lifecycle events by name",
		},
		[]string{"event"},
	)
	if err := reg.Register(events); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		events = existing
	}
	return &MetricsPublisher{events: events}, nil
}

func (p *MetricsPublisher) Publish(e Event) {
	if e.Name == "" {
		return
	}
	p.events.WithLabelValues(e.Name).Inc()
}
