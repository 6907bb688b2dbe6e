package analytics

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
	"github.com/rearcquest/datasync/storage"
)

// Main holds the config for the analytics command. With Bucket and Key set
// it runs once against that population object; with QueueURL set it
// long-polls the queue the Lambda would normally be attached to.
type Main struct {
	Bucket      string `help:"Bucket holding the population object and the time series (one-shot mode)."`
	Key         string `help:"Population object key (one-shot mode)."`
	SeriesKey   string `help:"Time-series object key, in the same bucket as the population object."`
	QueueURL    string `help:"SQS queue URL to poll for population upload events. Overrides one-shot mode."`
	SQSEndpoint string `help:"Custom SQS endpoint."`
	WaitSeconds int64  `help:"SQS long-poll wait in seconds."`
	MaxMessages int    `help:"Stop after receiving this many messages, handled or not. 0 polls until interrupted."`

	datasync.JobOptions `flag:"!embed"`
	storage.Options     `flag:"!embed"`

	// Store overrides the store described by Options when set.
	Store datasync.ObjectStore `flag:"-"`
	// SQS overrides the client built from Region and SQSEndpoint when set.
	SQS sqsiface.SQSAPI `flag:"-"`
}

// NewMain gets a new Main with default values.
func NewMain() *Main {
	return &Main{
		Bucket:      "mayank-rearc-quest-2025",
		Key:         "population/us_population_data.json",
		SeriesKey:   "pr/pr.data.0.Current",
		WaitSeconds: 20,
		Options:     storage.NewOptions(),
	}
}

// Run executes the analytics once or polls the queue until interrupted.
func (m *Main) Run() error {
	job, err := m.JobOptions.Start("analytics")
	if err != nil {
		return err
	}
	defer job.Finish()

	h, err := m.handler(job)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if m.QueueURL == "" {
		if m.Bucket == "" || m.Key == "" {
			return errors.New("either a queue URL or both bucket and key are required")
		}
		_, err := h.Run(ctx, ObjectRef{Bucket: m.Bucket, Key: m.Key})
		if err != nil {
			job.Log.Printf("error processing file: %v", err)
		}
		return err
	}

	client := m.SQS
	if client == nil {
		cfg := &aws.Config{Region: aws.String(m.Region)}
		if m.SQSEndpoint != "" {
			cfg.Endpoint = aws.String(m.SQSEndpoint)
		}
		sess, err := session.NewSession(cfg)
		if err != nil {
			return errors.Wrap(err, "getting new session")
		}
		client = sqs.New(sess)
	}
	p := &Poller{
		QueueURL:    m.QueueURL,
		WaitSeconds: m.WaitSeconds,
		SQS:         client,
		Handler:     h,
		Log:         job.Log,
	}
	job.Log.Printf("polling %s", m.QueueURL)
	return p.Run(ctx, m.MaxMessages)
}

// Lambda serves the handler to the AWS Lambda runtime. It only returns if
// setting up fails.
func (m *Main) Lambda() error {
	job, err := m.JobOptions.Start("analytics")
	if err != nil {
		return err
	}
	h, err := m.handler(job)
	if err != nil {
		job.Finish()
		return err
	}
	lambda.Start(h.Handle)
	return nil
}

func (m *Main) handler(job *datasync.Job) (*Handler, error) {
	store := m.Store
	if store == nil {
		var err error
		store, err = m.Options.Open()
		if err != nil {
			return nil, err
		}
	}
	h := NewHandler(store)
	h.SeriesKey = m.SeriesKey
	h.Log = job.Log
	h.Stats = job.Stats
	return h, nil
}
