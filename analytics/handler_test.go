package analytics_test

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
	"github.com/rearcquest/datasync/analytics"
	"github.com/rearcquest/datasync/mock"
)

const (
	bucket     = "quest"
	popKey     = "population/us_population_data.json"
	seriesKey  = "pr/pr.data.0.Current"
	pop2013to5 = `{"data":[
		{"Nation":"United States","Year":"2013","Population":"311536594"},
		{"Nation":"United States","Year":2014,"Population":314107084},
		{"Nation":"United States","Year":2015,"Population":316515021}
	]}`
)

func newHandler(store datasync.ObjectStore) (*analytics.Handler, *bytes.Buffer, *mock.RecordingStatter) {
	buf := &bytes.Buffer{}
	stats := &mock.RecordingStatter{}
	h := analytics.NewHandler(store)
	h.Log = datasync.StdLogger{Logger: log.New(buf, "", 0)}
	h.Stats = stats
	return h, buf, stats
}

func seededStore() *mock.Store {
	store := mock.NewStore()
	store.Seed(bucket, popKey, []byte(pop2013to5))
	store.Seed(bucket, seriesKey, []byte(seriesTSV))
	return store
}

func TestHandlerRun(t *testing.T) {
	store := seededStore()
	h, logs, stats := newHandler(store)

	r, err := h.Run(context.Background(), analytics.ObjectRef{Bucket: bucket, Key: popKey})
	if err != nil {
		t.Fatalf("running analytics: %v", err)
	}
	if !r.HasMean || r.MeanPopulation != (311536594.0+314107084.0+316515021.0)/3 {
		t.Fatalf("unexpected mean %v (ok=%v)", r.MeanPopulation, r.HasMean)
	}
	if len(r.BestYears) != 2 || r.BestYears[0].SeriesID != "PRS30006011" || r.BestYears[0].Year != 2014 {
		t.Fatalf("unexpected best years %v", r.BestYears)
	}
	if len(r.Joined) != 2 || r.Joined[0].Population != 311536594 || r.Joined[1].Value != 110 {
		t.Fatalf("unexpected joined rows %v", r.Joined)
	}
	if r.SeriesRows != 4 || r.DroppedSeries != 3 {
		t.Fatalf("unexpected row counts: kept %d, dropped %d", r.SeriesRows, r.DroppedSeries)
	}

	out := logs.String()
	for _, want := range []string{
		"[Analytics Q1] Mean Population (2013-2018): 314,052,900",
		"[Analytics Q2] Best Year Report (Top 5):",
		"[Analytics Q3] Joined Report:",
		"311536594",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "N/A") {
		t.Fatalf("non-numeric value reached a report:\n%s", out)
	}
	if stats.Get("analytics.completed") != 1 || stats.Get("analytics.series_dropped") != 3 {
		t.Fatalf("unexpected stats %v", stats.Counts)
	}
	if len(store.Puts) != 0 {
		t.Fatalf("analytics must not write, got puts %v", store.Puts)
	}
}

func TestHandlerRunNoPopulationInRange(t *testing.T) {
	store := seededStore()
	store.Seed(bucket, popKey, []byte(`{"data":[{"Year":1990,"Population":5}]}`))
	h, logs, _ := newHandler(store)

	r, err := h.Run(context.Background(), analytics.ObjectRef{Bucket: bucket, Key: popKey})
	if err != nil {
		t.Fatalf("running analytics: %v", err)
	}
	if r.HasMean || len(r.Joined) != 0 {
		t.Fatalf("expected no mean and no joined rows, got %+v", r)
	}
	if !strings.Contains(logs.String(), "no population rows in range") {
		t.Fatalf("unexpected log output:\n%s", logs.String())
	}
}

func TestHandlerHandle(t *testing.T) {
	store := seededStore()
	h, logs, stats := newHandler(store)

	ev := sqsEvent(snsBody(t, s3Event(t, bucket, popKey)))
	if err := h.Handle(context.Background(), ev); err != nil {
		t.Fatalf("handling event: %v", err)
	}
	if !strings.Contains(logs.String(), "processing file: s3://quest/population/us_population_data.json") {
		t.Fatalf("unexpected log output:\n%s", logs.String())
	}
	if stats.Get("analytics.completed") != 1 {
		t.Fatalf("unexpected stats %v", stats.Counts)
	}
}

func TestHandlerHandleErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*mock.Store)
		ev     func(t *testing.T) string
		expErr string
	}{
		{
			name:   "malformed trigger",
			ev:     func(t *testing.T) string { return `{"Type":"Notification"}` },
			expErr: "malformed trigger payload",
		},
		{
			name:   "missing population object",
			ev:     func(t *testing.T) string { return snsBody(t, s3Event(t, bucket, "population/other.json")) },
			expErr: "loading population",
		},
		{
			name:   "missing series object",
			setup:  func(s *mock.Store) { s.Seed("elsewhere", popKey, []byte(pop2013to5)) },
			ev:     func(t *testing.T) string { return snsBody(t, s3Event(t, "elsewhere", popKey)) },
			expErr: "loading time series",
		},
		{
			name:   "population not json",
			setup:  func(s *mock.Store) { s.Seed(bucket, popKey, []byte("oops")) },
			ev:     func(t *testing.T) string { return snsBody(t, s3Event(t, bucket, popKey)) },
			expErr: "decoding population json",
		},
		{
			name:   "store failure",
			setup:  func(s *mock.Store) { s.GetErr = errors.New("slow down") },
			ev:     func(t *testing.T) string { return snsBody(t, s3Event(t, bucket, popKey)) },
			expErr: "slow down",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store := seededStore()
			if test.setup != nil {
				test.setup(store)
			}
			h, logs, stats := newHandler(store)
			err := h.Handle(context.Background(), sqsEvent(test.ev(t)))
			if err == nil || !strings.Contains(err.Error(), test.expErr) {
				t.Fatalf("expected error containing %q, got %v", test.expErr, err)
			}
			if !strings.Contains(logs.String(), "error processing file: ") {
				t.Fatalf("error not logged:\n%s", logs.String())
			}
			if stats.Get("analytics.failed") != 1 {
				t.Fatalf("unexpected stats %v", stats.Counts)
			}
		})
	}
}
