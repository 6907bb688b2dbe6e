package datasync

import (
	"io"
	"log"
	"time"

	"github.com/google/uuid"
)

// Statter is the interface that stats collectors must implement to get stats out of datasync.
type Statter interface {
	Count(name string, value int64, rate float64, tags ...string)
	Gauge(name string, value float64, rate float64, tags ...string)
	Histogram(name string, value float64, rate float64, tags ...string)
	Set(name string, value string, rate float64, tags ...string)
	Timing(name string, value time.Duration, rate float64, tags ...string)
}

// NopStatter does nothing.
type NopStatter struct{}

// Count does nothing.
func (NopStatter) Count(name string, value int64, rate float64, tags ...string) {}

// Gauge does nothing.
func (NopStatter) Gauge(name string, value float64, rate float64, tags ...string) {}

// Histogram does nothing.
func (NopStatter) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set does nothing.
func (NopStatter) Set(name string, value string, rate float64, tags ...string) {}

// Timing does nothing.
func (NopStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {}

// Logger is the interface that loggers must implement to get datasync logs.
type Logger interface {
	Printf(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

// NopLogger logs nothing.
type NopLogger struct{}

// Printf does nothing.
func (NopLogger) Printf(format string, v ...interface{}) {}

// Debugf does nothing.
func (NopLogger) Debugf(format string, v ...interface{}) {}

// StdLogger only prints on Printf.
type StdLogger struct {
	*log.Logger
}

// Printf implements Logger interface.
func (s StdLogger) Printf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Debugf implements Logger interface, but prints nothing.
func (StdLogger) Debugf(format string, v ...interface{}) {}

// VerboseLogger prints on both Printf and Debugf.
type VerboseLogger struct {
	*log.Logger
}

// Printf implements Logger interface.
func (s VerboseLogger) Printf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// Debugf implements Logger interface.
func (s VerboseLogger) Debugf(format string, v ...interface{}) {
	s.Logger.Printf(format, v...)
}

// NewRunLogger returns a Logger writing to out whose lines are prefixed with
// the job name and a fresh run id, so that the output of one invocation can
// be picked out of a shared log stream.
func NewRunLogger(out io.Writer, job string, verbose bool) Logger {
	l := log.New(out, job+" "+uuid.NewString()[:8]+" ", log.LstdFlags)
	if verbose {
		return VerboseLogger{l}
	}
	return StdLogger{l}
}

// MultiStatter sends every stat to each of its Statters.
type MultiStatter []Statter

// Count implements Statter by calling Count on each Statter.
func (m MultiStatter) Count(name string, value int64, rate float64, tags ...string) {
	for _, s := range m {
		s.Count(name, value, rate, tags...)
	}
}

// Gauge implements Statter by calling Gauge on each Statter.
func (m MultiStatter) Gauge(name string, value float64, rate float64, tags ...string) {
	for _, s := range m {
		s.Gauge(name, value, rate, tags...)
	}
}

// Histogram implements Statter by calling Histogram on each Statter.
func (m MultiStatter) Histogram(name string, value float64, rate float64, tags ...string) {
	for _, s := range m {
		s.Histogram(name, value, rate, tags...)
	}
}

// Set implements Statter by calling Set on each Statter.
func (m MultiStatter) Set(name string, value string, rate float64, tags ...string) {
	for _, s := range m {
		s.Set(name, value, rate, tags...)
	}
}

// Timing implements Statter by calling Timing on each Statter.
func (m MultiStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {
	for _, s := range m {
		s.Timing(name, value, rate, tags...)
	}
}
