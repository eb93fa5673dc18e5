// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vechain/stakeledger/log"
)

const namespace = "stakeledger"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the process to prometheus backed meters.
// Calling it again keeps the existing registry.
func InitializePrometheusMetrics() {
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = &prometheusMetrics{}
	}
}

type prometheusMetrics struct {
	meters sync.Map // name => meter
}

func getOrCreate[T any](m *prometheusMetrics, name string, create func() (T, prometheus.Collector)) T {
	if v, ok := m.meters.Load(name); ok {
		return v.(T)
	}
	meter, collector := create()
	if err := prometheus.Register(collector); err != nil {
		logger.Warn("unable to register metric", "name", name, "err", err)
	}
	actual, _ := m.meters.LoadOrStore(name, meter)
	return actual.(T)
}

func (m *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

func (m *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	return getOrCreate(m, name, func() (CountMeter, prometheus.Collector) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		return &promCounter{c}, c
	})
}

func (m *prometheusMetrics) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	return getOrCreate(m, name, func() (CountVecMeter, prometheus.Collector) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return &promCounterVec{c}, c
	})
}

func (m *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	return getOrCreate(m, name, func() (GaugeMeter, prometheus.Collector) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return &promGauge{g}, g
	})
}

func (m *prometheusMetrics) GetOrCreateGaugeVecMeter(name string, labels []string) GaugeVecMeter {
	return getOrCreate(m, name, func() (GaugeVecMeter, prometheus.Collector) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		return &promGaugeVec{g}, g
	})
}

func (m *prometheusMetrics) GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	return getOrCreate(m, name, func() (HistogramVecMeter, prometheus.Collector) {
		floatBuckets := make([]float64, 0, len(buckets))
		for _, b := range buckets {
			floatBuckets = append(floatBuckets, float64(b))
		}
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets,
		}, labels)
		return &promHistogramVec{h}, h
	})
}

type promCounter struct{ c prometheus.Counter }

func (p *promCounter) Add(i int64) { p.c.Add(float64(i)) }

type promCounterVec struct{ c *prometheus.CounterVec }

func (p *promCounterVec) AddWithLabel(i int64, labels map[string]string) {
	p.c.With(labels).Add(float64(i))
}

type promGauge struct{ g prometheus.Gauge }

func (p *promGauge) Add(i int64) { p.g.Add(float64(i)) }
func (p *promGauge) Set(i int64) { p.g.Set(float64(i)) }

type promGaugeVec struct{ g *prometheus.GaugeVec }

func (p *promGaugeVec) AddWithLabel(i int64, labels map[string]string) {
	p.g.With(labels).Add(float64(i))
}

func (p *promGaugeVec) SetWithLabel(i int64, labels map[string]string) {
	p.g.With(labels).Set(float64(i))
}

type promHistogramVec struct{ h *prometheus.HistogramVec }

func (p *promHistogramVec) ObserveWithLabels(i int64, labels map[string]string) {
	p.h.With(labels).Observe(float64(i))
}
