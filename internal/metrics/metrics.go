package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the ledger service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AgreementsCreated   prometheus.Counter
	AgreementRejections *prometheus.CounterVec
	AgreementCount      prometheus.Gauge
	CreateDuration      prometheus.Histogram

	OutboxPending   prometheus.Gauge
	OutboxDelivered prometheus.Counter
	OutboxDropped   prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AgreementsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rentledger",
			Name:      "agreements_created_total",
			Help:      "Total number of agreements created",
		}),
		AgreementRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentledger",
			Name:      "agreement_rejections_total",
			Help:      "Total number of rejected agreement creations by reason",
		}, []string{"reason"}),
		AgreementCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rentledger",
			Name:      "agreement_count",
			Help:      "Value of the ledger agreement counter",
		}),
		CreateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rentledger",
			Name:      "create_duration_seconds",
			Help:      "Duration of agreement creation requests",
			Buckets:   prometheus.DefBuckets,
		}),
		OutboxPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rentledger",
			Name:      "outbox_pending",
			Help:      "Number of events waiting in the outbox",
		}),
		OutboxDelivered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rentledger",
			Name:      "outbox_delivered_total",
			Help:      "Total number of outbox events delivered",
		}),
		OutboxDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rentledger",
			Name:      "outbox_dropped_total",
			Help:      "Total number of outbox events dropped after max retries",
		}),
	}
}

func (m *Metrics) ObserveCreated(count uint32, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AgreementsCreated.Inc()
	m.AgreementCount.Set(float64(count))
	m.CreateDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRejected(reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.AgreementRejections.WithLabelValues(reason).Inc()
	m.CreateDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) SetOutboxPending(size int) {
	if m == nil {
		return
	}
	m.OutboxPending.Set(float64(size))
}

func (m *Metrics) OutboxDelivery(delivered bool) {
	if m == nil {
		return
	}
	if delivered {
		m.OutboxDelivered.Inc()
		return
	}
	m.OutboxDropped.Inc()
}
