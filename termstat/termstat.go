// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package termstat

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Collector keeps running counts and rewrites a single status line on out
// with them, so a long mirror run shows its progress on a terminal.
type Collector struct {
	lock    sync.Mutex
	indexes map[string]int
	names   []string
	stats   []int64
	changed bool
	out     io.Writer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewCollector initializes a Collector which refreshes its line on out
// every interval until Stop is called.
func NewCollector(out io.Writer, interval time.Duration) *Collector {
	ts := &Collector{
		indexes: make(map[string]int),
		out:     out,
		done:    make(chan struct{}),
	}
	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				ts.write()
			case <-ts.done:
				return
			}
		}
	}()
	return ts
}

// Stop halts the refresh loop and writes the final counts followed by a
// newline.
func (t *Collector) Stop() {
	close(t.done)
	t.wg.Wait()
	t.lock.Lock()
	t.changed = true
	t.lock.Unlock()
	t.write()
	fmt.Fprintln(t.out)
}

// Count adds value to the named stat. Sampling rates are ignored; every call
// is counted.
func (t *Collector) Count(name string, value int64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.changed = true

	idx, ok := t.indexes[name]
	if !ok {
		idx = len(t.stats)
		t.stats = append(t.stats, 0)
		t.names = append(t.names, name)
		t.indexes[name] = idx
	}
	t.stats[idx] += value
}

// Line returns the current status line.
func (t *Collector) Line() string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.line()
}

func (t *Collector) line() string {
	parts := make([]string, len(t.stats))
	for i := range t.stats {
		parts[i] = fmt.Sprintf("%s: %d", t.names[i], t.stats[i])
	}
	return strings.Join(parts, " ")
}

func (t *Collector) write() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.changed {
		return
	}
	t.changed = false
	fmt.Fprint(t.out, "\r"+t.line())
}

// Gauge does nothing.
func (t *Collector) Gauge(name string, value float64, rate float64, tags ...string) {}

// Histogram does nothing.
func (t *Collector) Histogram(name string, value float64, rate float64, tags ...string) {}

// Set does nothing.
func (t *Collector) Set(name string, value string, rate float64, tags ...string) {}

// Timing does nothing.
func (t *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {}
