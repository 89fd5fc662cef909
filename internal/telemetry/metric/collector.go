package metric

import "github.com/prometheus/client_golang/prometheus"

// QueueSource is the read side of the sync manager.
type QueueSource interface {
	Len() int
	Cap() int
	IsOnline() bool
}

// QueueCollector reports queue depth and connectivity at scrape time.
type QueueCollector struct {
	source QueueSource

	depth    *prometheus.Desc
	capacity *prometheus.Desc
	online   *prometheus.Desc
}

// NewQueueCollector creates a collector reading from source.
func NewQueueCollector(source QueueSource) *QueueCollector {
	return &QueueCollector{
		source: source,
		depth: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "sync", "queue_depth"),
			"Operations waiting to be replayed", nil, nil),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "sync", "queue_capacity"),
			"Maximum queued operations before eviction", nil, nil),
		online: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "sync", "online"),
			"1 when the backend is considered reachable", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *QueueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
	ch <- c.capacity
	ch <- c.online
}

// Collect implements prometheus.Collector.
func (c *QueueCollector) Collect(ch chan<- prometheus.Metric) {
	online := 0.0
	if c.source.IsOnline() {
		online = 1
	}
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(c.source.Len()))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.source.Cap()))
	ch <- prometheus.MustNewConstMetric(c.online, prometheus.GaugeValue, online)
}
