package lixi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector exposes a GameMonitor as Prometheus metrics.
// Values are read from the monitor on every scrape.
type MetricsCollector struct {
	monitor *GameMonitor

	draws         *prometheus.Desc
	playersServed *prometheus.Desc
	moneyGiven    *prometheus.Desc
	transitions   *prometheus.Desc
	storageWrites *prometheus.Desc
	storageErrors *prometheus.Desc
	uptime        *prometheus.Desc
}

// NewMetricsCollector creates a collector over monitor
func NewMetricsCollector(namespace string, monitor *GameMonitor) *MetricsCollector {
	if namespace == "" {
		namespace = "lixi"
	}
	if monitor == nil {
		monitor = NewGameMonitor()
	}

	return &MetricsCollector{
		monitor: monitor,
		draws: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "game", "draws_total"),
			"Total number of draws by outcome (prize, exhausted)",
			[]string{"outcome"}, nil,
		),
		playersServed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "game", "players_served_total"),
			"Total number of players that received an envelope",
			nil, nil,
		),
		moneyGiven: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "game", "money_given_total"),
			"Total amount of money handed out",
			nil, nil,
		),
		transitions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "transitions_total"),
			"Total number of session transitions by result (accepted, rejected)",
			[]string{"result"}, nil,
		),
		storageWrites: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "writes_total"),
			"Total number of storage writes",
			nil, nil,
		),
		storageErrors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "storage", "errors_total"),
			"Total number of failed storage writes",
			nil, nil,
		),
		uptime: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "monitor_start_time_seconds"),
			"Unix time the monitor was started or last reset",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.draws
	ch <- c.playersServed
	ch <- c.moneyGiven
	ch <- c.transitions
	ch <- c.storageWrites
	ch <- c.storageErrors
	ch <- c.uptime
}

// Collect implements prometheus.Collector
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.monitor.GetMetrics()

	ch <- prometheus.MustNewConstMetric(c.draws, prometheus.CounterValue, float64(m.TotalDraws), "prize")
	ch <- prometheus.MustNewConstMetric(c.draws, prometheus.CounterValue, float64(m.ExhaustedDraws), "exhausted")
	ch <- prometheus.MustNewConstMetric(c.playersServed, prometheus.CounterValue, float64(m.PlayersServed))
	ch <- prometheus.MustNewConstMetric(c.moneyGiven, prometheus.CounterValue, float64(m.MoneyGiven))
	ch <- prometheus.MustNewConstMetric(c.transitions, prometheus.CounterValue, float64(m.Transitions), "accepted")
	ch <- prometheus.MustNewConstMetric(c.transitions, prometheus.CounterValue, float64(m.RejectedTransition), "rejected")
	ch <- prometheus.MustNewConstMetric(c.storageWrites, prometheus.CounterValue, float64(m.StorageWrites))
	ch <- prometheus.MustNewConstMetric(c.storageErrors, prometheus.CounterValue, float64(m.StorageErrors))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, float64(m.StartTime)/1e9)
}

// Register registers the collector with reg
func (c *MetricsCollector) Register(reg prometheus.Registerer) error {
	return reg.Register(c)
}
