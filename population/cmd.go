package population

import (
	"context"
	"net/http"
	"time"

	"github.com/rearcquest/datasync"
	"github.com/rearcquest/datasync/storage"
)

// DefaultURL is the DataUSA query for yearly US population.
const DefaultURL = "https://honolulu-api.datausa.io/tesseract/data.jsonrecords?cube=acs_yg_total_population_1&drilldowns=Year%2CNation&locale=en&measures=Population"

// Main holds the config for the population command.
type Main struct {
	URL     string        `help:"Population API URL."`
	Bucket  string        `help:"Bucket to upload the population data to."`
	Key     string        `help:"Object key for the population data."`
	Timeout time.Duration `help:"Timeout for the API request."`

	datasync.JobOptions `flag:"!embed"`
	storage.Options     `flag:"!embed"`

	// Store overrides the store described by Options when set.
	Store datasync.ObjectStore `flag:"-"`
	// Client overrides the HTTP client built from Timeout when set.
	Client *http.Client `flag:"-"`
}

// NewMain gets a new Main with default values.
func NewMain() *Main {
	return &Main{
		URL:        DefaultURL,
		Bucket:     "mayank-rearc-quest-2025",
		Key:        "population/us_population_data.json",
		Timeout:    time.Minute,
		JobOptions: datasync.JobOptions{},
		Options:    storage.NewOptions(),
	}
}

// Run fetches and uploads the population data once. A failed fetch or upload
// is logged and swallowed: the next scheduled run simply tries again, so Run
// only returns errors from setting itself up.
func (m *Main) Run() error {
	job, err := m.JobOptions.Start("population")
	if err != nil {
		return err
	}
	defer job.Finish()

	store := m.Store
	if store == nil {
		store, err = m.Options.Open()
		if err != nil {
			return err
		}
	}
	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: m.Timeout}
	}

	f := &Fetcher{
		URL:    m.URL,
		Bucket: m.Bucket,
		Key:    m.Key,
		Client: client,
		Store:  store,
		Log:    job.Log,
		Stats:  job.Stats,
	}
	if err := f.Fetch(context.Background()); err != nil {
		switch err.(type) {
		case *RequestError:
			job.Log.Printf("error fetching data from API: %v", err)
		default:
			job.Log.Printf("an unexpected error occurred: %v", err)
		}
	}
	return nil
}
