// Package prom provides a datasync.Statter backed by Prometheus metrics. A
// batch job has nothing to scrape, so the collected metrics are pushed to a
// Pushgateway when the job ends.
package prom

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Statter creates one Prometheus metric per stat name the first time the
// name is seen. Dotted stat names become underscored metric names.
type Statter struct {
	mu         sync.Mutex
	namespace  string
	reg        *prometheus.Registry
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewStatter returns a Statter registering metrics under namespace in a
// fresh registry.
func NewStatter(namespace string) *Statter {
	return &Statter{
		namespace:  namespace,
		reg:        prometheus.NewRegistry(),
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Registry returns the registry holding every metric created so far.
func (s *Statter) Registry() *prometheus.Registry {
	return s.reg
}

// Count adds value to the named counter. Negative values are ignored since
// counters only go up.
func (s *Statter) Count(name string, value int64, rate float64, tags ...string) {
	if value < 0 {
		return
	}
	s.counter(name).Add(float64(value))
}

// Gauge sets the named gauge.
func (s *Statter) Gauge(name string, value float64, rate float64, tags ...string) {
	s.gauge(name).Set(value)
}

// Histogram observes value in the named histogram.
func (s *Statter) Histogram(name string, value float64, rate float64, tags ...string) {
	s.histogram(metricName(name), name).Observe(value)
}

// Set does nothing.
func (s *Statter) Set(name string, value string, rate float64, tags ...string) {}

// Timing observes value, in seconds, in a histogram named name_seconds.
func (s *Statter) Timing(name string, value time.Duration, rate float64, tags ...string) {
	s.histogram(metricName(name)+"_seconds", name).Observe(value.Seconds())
}

// Push sends every metric to the Pushgateway at url, grouped under job.
func (s *Statter) Push(ctx context.Context, url, job string) error {
	err := push.New(url, job).Gatherer(s.reg).PushContext(ctx)
	return errors.Wrapf(err, "pushing metrics to %s", url)
}

func (s *Statter) counter(name string) prometheus.Counter {
	s.mu.Lock()
	defer s.mu.Unlock()
	mn := metricName(name)
	c, ok := s.counters[mn]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace,
			Name:      mn,
			Help:      "Count of " + name + ".",
		})
		s.reg.MustRegister(c)
		s.counters[mn] = c
	}
	return c
}

func (s *Statter) gauge(name string) prometheus.Gauge {
	s.mu.Lock()
	defer s.mu.Unlock()
	mn := metricName(name)
	g, ok := s.gauges[mn]
	if !ok {
		g = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: s.namespace,
			Name:      mn,
			Help:      "Last value of " + name + ".",
		})
		s.reg.MustRegister(g)
		s.gauges[mn] = g
	}
	return g
}

func (s *Statter) histogram(mn, name string) prometheus.Histogram {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histograms[mn]
	if !ok {
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: s.namespace,
			Name:      mn,
			Help:      "Distribution of " + name + ".",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		})
		s.reg.MustRegister(h)
		s.histograms[mn] = h
	}
	return h
}

func metricName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
