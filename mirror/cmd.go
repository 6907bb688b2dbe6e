package mirror

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rearcquest/datasync"
	"github.com/rearcquest/datasync/storage"
	"github.com/rearcquest/datasync/termstat"
)

// DefaultUserAgent is sent with every request. download.bls.gov answers 403
// to clients that do not look like a browser.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// Main holds the config for the mirror command.
type Main struct {
	ListingURL string        `help:"Directory listing to mirror."`
	Bucket     string        `help:"Bucket to mirror into."`
	Prefix     string        `help:"Key prefix the files are stored under."`
	UserAgent  string        `help:"User-Agent header for listing and file requests."`
	Timeout    time.Duration `help:"Timeout for each HTTP request."`
	Progress   bool          `help:"Show running counts on stderr."`

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
		ListingURL: "https://download.bls.gov/pub/time.series/pr/",
		Bucket:     "mayank-rearc-quest-2025",
		Prefix:     "pr/",
		UserAgent:  DefaultUserAgent,
		Timeout:    5 * time.Minute,
		Options:    storage.NewOptions(),
	}
}

// Run mirrors the listing once. Unlike the population job, failures to list
// or upload are returned so the process exits non-zero.
func (m *Main) Run() error {
	job, err := m.JobOptions.Start("mirror")
	if err != nil {
		return err
	}
	defer job.Finish()

	if m.Progress {
		ts := termstat.NewCollector(os.Stderr, 2*time.Second)
		defer ts.Stop()
		job.AddStatter(ts)
	}

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

	mr := &Mirror{
		ListingURL: m.ListingURL,
		Bucket:     m.Bucket,
		Prefix:     m.Prefix,
		UserAgent:  m.UserAgent,
		Client:     client,
		Store:      store,
		Log:        job.Log,
		Stats:      job.Stats,
	}
	job.Log.Printf("starting data sync of %s", m.ListingURL)
	_, err = mr.Sync(context.Background())
	return err
}
