package datasync_test

import (
	"testing"

	"github.com/rearcquest/datasync"
	"github.com/rearcquest/datasync/mock"
)

func TestMultiStatter(t *testing.T) {
	a, b := &mock.RecordingStatter{}, &mock.RecordingStatter{}
	m := datasync.MultiStatter{a, b, datasync.NopStatter{}}
	m.Count("mirror.uploaded", 3, 1)
	m.Gauge("analytics.rows", 7, 1)
	for i, s := range []*mock.RecordingStatter{a, b} {
		if s.Get("mirror.uploaded") != 3 {
			t.Fatalf("statter %d: count %d", i, s.Get("mirror.uploaded"))
		}
		if s.Gauges["analytics.rows"] != 7 {
			t.Fatalf("statter %d: gauge %v", i, s.Gauges["analytics.rows"])
		}
	}
}
