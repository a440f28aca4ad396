// Copyright (c) TFG Co. All Rights Reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/tutumagi/mcentity/logger"
	"go.uber.org/zap"
)

// PrometheusReporter reports metrics to prometheus
type PrometheusReporter struct {
	serverType          string
	constLabels         map[string]string
	registry            *prometheus.Registry
	countReportersMap   map[string]*prometheus.CounterVec
	summaryReportersMap map[string]*prometheus.SummaryVec
	gaugeReportersMap   map[string]*prometheus.GaugeVec
}

// NewPrometheusReporter builds the reporter on its own registry
func NewPrometheusReporter(serverType string, constLabels map[string]string) (*PrometheusReporter, error) {
	labels := map[string]string{"serverType": serverType}
	for k, v := range constLabels {
		labels[k] = v
	}

	p := &PrometheusReporter{
		serverType:          serverType,
		constLabels:         labels,
		registry:            prometheus.NewRegistry(),
		countReportersMap:   map[string]*prometheus.CounterVec{},
		summaryReportersMap: map[string]*prometheus.SummaryVec{},
		gaugeReportersMap:   map[string]*prometheus.GaugeVec{},
	}

	p.countReportersMap[PacketsHandled] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "entitytrack",
			Subsystem:   "stream",
			Name:        PacketsHandled,
			Help:        "the number of packets dispatched to the entity tracker",
			ConstLabels: p.constLabels,
		},
		[]string{"kind", "status"},
	)

	p.summaryReportersMap[PacketHandleTime] = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:   "entitytrack",
			Subsystem:   "stream",
			Name:        PacketHandleTime,
			Help:        "the time to handle a packet including its event handlers, in nanoseconds",
			Objectives:  map[float64]float64{0.7: 0.02, 0.95: 0.005, 0.99: 0.001},
			ConstLabels: p.constLabels,
		},
		[]string{"kind"},
	)

	p.countReportersMap[EventsEmitted] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "entitytrack",
			Subsystem:   "tracker",
			Name:        EventsEmitted,
			Help:        "the number of domain events emitted",
			ConstLabels: p.constLabels,
		},
		[]string{"event", "status"},
	)

	p.gaugeReportersMap[EntitiesTracked] = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   "entitytrack",
			Subsystem:   "tracker",
			Name:        EntitiesTracked,
			Help:        "the number of entities currently tracked",
			ConstLabels: p.constLabels,
		},
		[]string{},
	)

	collectors := make([]prometheus.Collector, 0, 4)
	for _, c := range p.countReportersMap {
		collectors = append(collectors, c)
	}
	for _, c := range p.summaryReportersMap {
		collectors = append(collectors, c)
	}
	for _, c := range p.gaugeReportersMap {
		collectors = append(collectors, c)
	}
	for _, c := range collectors {
		if err := p.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// GetPrometheusReporter builds the reporter from config and serves /metrics
//	 keys: entitytrack.metrics.prometheus.port
func GetPrometheusReporter(serverType string, config *viper.Viper, constLabels map[string]string) (*PrometheusReporter, error) {
	p, err := NewPrometheusReporter(serverType, constLabels)
	if err != nil {
		return nil, err
	}

	port := config.GetInt("entitytrack.metrics.prometheus.port")
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			logger.Error("prometheus metrics server stopped", zap.Int("port", port), zap.Error(err))
		}
	}()

	return p, nil
}

// Handler serves the registry in the exposition format
func (p *PrometheusReporter) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ReportSummary reports a summary metric
func (p *PrometheusReporter) ReportSummary(metric string, labels map[string]string, value float64) error {
	sum := p.summaryReportersMap[metric]
	if sum == nil {
		return ErrMetricNotKnown(metric)
	}
	o, err := sum.GetMetricWith(labels)
	if err != nil {
		return err
	}
	o.Observe(value)
	return nil
}

// ReportCount reports a counter metric
func (p *PrometheusReporter) ReportCount(metric string, labels map[string]string, count float64) error {
	cnt := p.countReportersMap[metric]
	if cnt == nil {
		return ErrMetricNotKnown(metric)
	}
	c, err := cnt.GetMetricWith(labels)
	if err != nil {
		return err
	}
	c.Add(count)
	return nil
}

// ReportGauge reports a gauge metric
func (p *PrometheusReporter) ReportGauge(metric string, labels map[string]string, value float64) error {
	g := p.gaugeReportersMap[metric]
	if g == nil {
		return ErrMetricNotKnown(metric)
	}
	gauge, err := g.GetMetricWith(labels)
	if err != nil {
		return err
	}
	gauge.Set(value)
	return nil
}
