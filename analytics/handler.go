// Package analytics joins the BLS productivity time series with the US
// population dataset whenever a new population file lands, and logs three
// reports. Nothing is written back to storage.
package analytics

import (
	"bytes"
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
)

// Handler runs the analytics for each population object named by a trigger.
type Handler struct {
	Store datasync.ObjectStore
	// SeriesKey is the time-series object, read from the same bucket as the
	// triggering population object.
	SeriesKey string

	YearFrom int
	YearTo   int
	SeriesID string
	Period   string
	TopN     int

	Log   datasync.Logger
	Stats datasync.Statter
}

// NewHandler returns a Handler with the standard report parameters.
func NewHandler(store datasync.ObjectStore) *Handler {
	return &Handler{
		Store:     store,
		SeriesKey: "pr/pr.data.0.Current",
		YearFrom:  2013,
		YearTo:    2018,
		SeriesID:  "PRS30006032",
		Period:    "Q01",
		TopN:      5,
		Log:       datasync.NopLogger{},
		Stats:     datasync.NopStatter{},
	}
}

// Report holds the computed results of one run.
type Report struct {
	Ref ObjectRef

	MeanPopulation float64
	HasMean        bool
	BestYears      []BestYear
	Joined         []JoinedRow

	SeriesRows    int
	DroppedSeries int
}

// Handle is the trigger entry point. Any error is logged and returned so
// the caller (Lambda, or the SQS poller) leaves the message for redelivery.
func (h *Handler) Handle(ctx context.Context, ev events.SQSEvent) error {
	refs, err := ParseTrigger(ev)
	if err != nil {
		h.Log.Printf("error processing file: %v", err)
		h.Stats.Count("analytics.failed", 1, 1)
		return err
	}
	for _, ref := range refs {
		if _, err := h.Run(ctx, ref); err != nil {
			h.Log.Printf("error processing file: %v", err)
			h.Stats.Count("analytics.failed", 1, 1)
			return err
		}
	}
	return nil
}

// Run loads, cleans, and reports on the population object ref together with
// the time series in the same bucket.
func (h *Handler) Run(ctx context.Context, ref ObjectRef) (*Report, error) {
	h.Log.Printf("processing file: %s", ref)

	seriesData, err := datasync.ReadAll(ctx, h.Store, ref.Bucket, h.SeriesKey)
	if err != nil {
		return nil, errors.Wrap(err, "loading time series")
	}
	series, dropped, err := LoadSeries(bytes.NewReader(seriesData))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing s3://%s/%s", ref.Bucket, h.SeriesKey)
	}

	popData, err := datasync.ReadAll(ctx, h.Store, ref.Bucket, ref.Key)
	if err != nil {
		return nil, errors.Wrap(err, "loading population")
	}
	pop, err := LoadPopulation(bytes.NewReader(popData))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", ref)
	}
	h.Log.Printf("data cleaning complete: %d series rows kept, %d dropped, %d population rows", len(series), dropped, len(pop))
	h.Stats.Count("analytics.series_dropped", int64(dropped), 1)

	r := &Report{
		Ref:           ref,
		SeriesRows:    len(series),
		DroppedSeries: dropped,
	}

	r.MeanPopulation, r.HasMean = MeanPopulation(pop, h.YearFrom, h.YearTo)
	if r.HasMean {
		h.Log.Printf("[Analytics Q1] Mean Population (%d-%d): %s", h.YearFrom, h.YearTo, FormatMean(r.MeanPopulation))
		h.Stats.Gauge("analytics.mean_population", r.MeanPopulation, 1)
	} else {
		h.Log.Printf("[Analytics Q1] Mean Population (%d-%d): no population rows in range", h.YearFrom, h.YearTo)
	}

	r.BestYears = BestYears(series, h.TopN)
	h.Log.Printf("[Analytics Q2] Best Year Report (Top %d):\n%s", h.TopN, FormatBestYears(r.BestYears))

	r.Joined = JoinSeriesPopulation(series, pop, h.SeriesID, h.Period)
	h.Log.Printf("[Analytics Q3] Joined Report:\n%s", FormatJoined(r.Joined))

	h.Stats.Count("analytics.completed", 1, 1)
	return r, nil
}
