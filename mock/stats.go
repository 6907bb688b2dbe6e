package mock

import (
	"sync"
	"time"
)

// RecordingStatter keeps counts and the last gauge value per stat name.
type RecordingStatter struct {
	mu     sync.Mutex
	Counts map[string]int64
	Gauges map[string]float64
}

func (r *RecordingStatter) Count(name string, value int64, rate float64, tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Counts == nil {
		r.Counts = make(map[string]int64)
	}
	r.Counts[name] += value
}

func (r *RecordingStatter) Gauge(name string, value float64, rate float64, tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Gauges == nil {
		r.Gauges = make(map[string]float64)
	}
	r.Gauges[name] = value
}

func (r *RecordingStatter) Histogram(name string, value float64, rate float64, tags ...string) {}

func (r *RecordingStatter) Set(name string, value string, rate float64, tags ...string) {}

func (r *RecordingStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {}

// Get returns the recorded count for name.
func (r *RecordingStatter) Get(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts[name]
}
