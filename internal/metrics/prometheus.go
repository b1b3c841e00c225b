package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sopkb"

var (
	callsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "operation_calls_total"),
		"Number of calls per operation.", []string{"op"}, nil)
	errorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "operation_errors_total"),
		"Number of failed calls per operation.", []string{"op"}, nil)
	secondsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "operation_seconds_total"),
		"Total time spent per operation.", []string{"op"}, nil)
	tokensDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "llm_tokens_total"),
		"Tokens reported by the model provider.", []string{"op", "direction"}, nil)
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- callsDesc
	ch <- errorsDesc
	ch <- secondsDesc
	ch <- tokensDesc
}

// Collect implements prometheus.Collector by exporting the current snapshot.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, o := range c.Snapshot().Operations {
		ch <- prometheus.MustNewConstMetric(callsDesc, prometheus.CounterValue, float64(o.Count), o.Name)
		ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(o.Errors), o.Name)
		ch <- prometheus.MustNewConstMetric(secondsDesc, prometheus.CounterValue, float64(o.TotalTimeMs)/1000, o.Name)
		if o.InputTokens > 0 || o.OutputTokens > 0 {
			ch <- prometheus.MustNewConstMetric(tokensDesc, prometheus.CounterValue, float64(o.InputTokens), o.Name, "input")
			ch <- prometheus.MustNewConstMetric(tokensDesc, prometheus.CounterValue, float64(o.OutputTokens), o.Name, "output")
		}
	}
}

// WriteTextfile writes the collector in the Prometheus text format to
// path, for pickup by a node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
