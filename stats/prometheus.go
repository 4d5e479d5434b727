package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromCollector exposes a Registry's counters as Prometheus metrics for
// scrape-based monitoring alongside the server's /stats endpoint.
type PromCollector struct {
	reg *Registry

	reads  *prometheus.Desc
	writes *prometheus.Desc
	bytesR *prometheus.Desc
	bytesW *prometheus.Desc
	stddev *prometheus.Desc
}

func NewPromCollector(reg *Registry) *PromCollector {
	return &PromCollector{
		reg:    reg,
		reads:  prometheus.NewDesc("multio_sink_reads_total", "total read operations", []string{"sink"}, nil),
		writes: prometheus.NewDesc("multio_sink_writes_total", "total write operations", []string{"sink"}, nil),
		bytesR: prometheus.NewDesc("multio_sink_bytes_read_total", "total bytes read", []string{"sink"}, nil),
		bytesW: prometheus.NewDesc("multio_sink_bytes_written_total", "total bytes written", []string{"sink"}, nil),
		stddev: prometheus.NewDesc("multio_sink_latency_stddev_seconds", "io latency standard deviation", []string{"sink"}, nil),
	}
}

func (c *PromCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.reads
	ch <- c.writes
	ch <- c.bytesR
	ch <- c.bytesW
	ch <- c.stddev
}

func (c *PromCollector) Collect(ch chan<- prometheus.Metric) {
	c.reg.mu.Lock()
	snapshot := make(map[string]*IOStats, len(c.reg.byName))
	for name, s := range c.reg.byName {
		snapshot[name] = s
	}
	c.reg.mu.Unlock()

	for name, s := range snapshot {
		ch <- prometheus.MustNewConstMetric(c.reads, prometheus.CounterValue, float64(s.NumReads), name)
		ch <- prometheus.MustNewConstMetric(c.writes, prometheus.CounterValue, float64(s.NumWrites), name)
		ch <- prometheus.MustNewConstMetric(c.bytesR, prometheus.CounterValue, float64(s.BytesRead), name)
		ch <- prometheus.MustNewConstMetric(c.bytesW, prometheus.CounterValue, float64(s.BytesWritten), name)
		ch <- prometheus.MustNewConstMetric(c.stddev, prometheus.GaugeValue, s.StdDevTime(), name)
	}
}
