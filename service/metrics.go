package service

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	reg           prometheus.Registerer
	ops           *prometheus.CounterVec
	size          prometheus.Gauge
	journalErrors prometheus.Counter

	// Set once a service is attached; computed when scraped.
	height      prometheus.GaugeFunc
	blackHeight prometheus.GaugeFunc
}

// NewMetrics registers the index collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reg: reg,
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbindex_operations_total",
				Help: "Index operations by kind and result.",
			}, []string{"op", "result"}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rbindex_size",
			Help: "Number of keys stored in the index.",
		}),
		journalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rbindex_journal_errors_total",
			Help: "Change events that could not be written to the outbox.",
		}),
	}
	reg.MustRegister(m.ops, m.size, m.journalErrors)
	return m
}

// watch registers the shape gauges of s. Height walks the whole tree, so it
// runs at scrape time under the read lock rather than on every mutation.
func (m *Metrics) watch(s *IndexService) {
	if m == nil {
		return
	}
	m.height = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "rbindex_height",
		Help: "Height of the red-black tree.",
	}, func() float64 { return float64(s.shape().Height) })
	m.blackHeight = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "rbindex_black_height",
		Help: "Black nodes on every root to leaf path.",
	}, func() float64 { return float64(s.shape().BlackHeight) })
	m.reg.MustRegister(m.height, m.blackHeight)
}

func (m *Metrics) observe(op, result string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op, result).Inc()
}

func (m *Metrics) setSize(n int) {
	if m == nil {
		return
	}
	m.size.Set(float64(n))
}

func (m *Metrics) journalError() {
	if m == nil {
		return
	}
	m.journalErrors.Inc()
}
