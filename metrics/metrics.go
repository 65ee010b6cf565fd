package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the daemon's collectors. All methods are safe on a nil
// receiver so components can be built without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	alarmsTriggered prometheus.Counter
	ringOutcomes    *prometheus.CounterVec
	escalations     prometheus.Counter
	smsSent         *prometheus.CounterVec
	smsReceived     *prometheus.CounterVec
	parseFailures   *prometheus.CounterVec
	schedulerTiers  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		alarmsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oppam_alarms_triggered_total",
			Help: "Total alarm timers that fired",
		}),
		ringOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppam_ring_outcomes_total",
			Help: "Total ring cycles by outcome",
		}, []string{"outcome"}),
		escalations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oppam_escalations_total",
			Help: "Total escalations sent to the caregiver",
		}),
		smsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppam_sms_sent_total",
			Help: "Total outbound SMS by result",
		}, []string{"result"}),
		smsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppam_sms_received_total",
			Help: "Total inbound SMS by kind",
		}, []string{"kind"}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppam_protocol_parse_failures_total",
			Help: "Total control messages dropped because they could not be parsed",
		}, []string{"prefix"}),
		schedulerTiers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppam_scheduler_registrations_total",
			Help: "Total timer registrations by delivery tier",
		}, []string{"tier"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.alarmsTriggered,
		m.ringOutcomes,
		m.escalations,
		m.smsSent,
		m.smsReceived,
		m.parseFailures,
		m.schedulerTiers,
	)
	return m
}

// RegisterGauge exposes a value computed at scrape time.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, fn))
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) AlarmTriggered() {
	if m != nil {
		m.alarmsTriggered.Inc()
	}
}

func (m *Metrics) RingOutcome(outcome string) {
	if m != nil {
		m.ringOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Escalated() {
	if m != nil {
		m.escalations.Inc()
	}
}

func (m *Metrics) SMSSent(result string) {
	if m != nil {
		m.smsSent.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) SMSReceived(kind string) {
	if m != nil {
		m.smsReceived.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ParseFailure(prefix string) {
	if m != nil {
		m.parseFailures.WithLabelValues(prefix).Inc()
	}
}

func (m *Metrics) SchedulerTier(tier string) {
	if m != nil {
		m.schedulerTiers.WithLabelValues(tier).Inc()
	}
}
