package analytics_test

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
	"github.com/rearcquest/datasync/analytics"
)

// fakeQueue serves a fixed list of batches and records deletions.
type fakeQueue struct {
	sqsiface.SQSAPI

	mu         sync.Mutex
	batches    [][]*sqs.Message
	receiveErr error
	deleted    []string
}

func (q *fakeQueue) ReceiveMessageWithContext(ctx aws.Context, in *sqs.ReceiveMessageInput, opts ...request.Option) (*sqs.ReceiveMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.batches) == 0 {
		if q.receiveErr != nil {
			return nil, q.receiveErr
		}
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := q.batches[0]
	q.batches = q.batches[1:]
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (q *fakeQueue) DeleteMessageWithContext(ctx aws.Context, in *sqs.DeleteMessageInput, opts ...request.Option) (*sqs.DeleteMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, aws.StringValue(in.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func message(id, body string) *sqs.Message {
	return &sqs.Message{
		MessageId:     aws.String(id),
		ReceiptHandle: aws.String("rh-" + id),
		Body:          aws.String(body),
	}
}

func TestPollerPoll(t *testing.T) {
	store := seededStore()
	h, _, stats := newHandler(store)
	good := snsBody(t, s3Event(t, bucket, popKey))
	q := &fakeQueue{batches: [][]*sqs.Message{{
		message("1", good),
		message("2", `{"Type":"Notification"}`),
		message("3", good),
	}}}
	p := &analytics.Poller{QueueURL: "https://sqs.us-east-1.amazonaws.com/1/q", SQS: q, Handler: h, Log: datasync.NopLogger{}}

	received, handled, err := p.Poll(context.Background())
	if err != nil {
		t.Fatalf("polling: %v", err)
	}
	if received != 3 || handled != 2 {
		t.Fatalf("expected 3 received and 2 handled messages, got %d and %d", received, handled)
	}
	if !reflect.DeepEqual(q.deleted, []string{"rh-1", "rh-3"}) {
		t.Fatalf("unexpected deletions %v", q.deleted)
	}
	if stats.Get("analytics.completed") != 2 || stats.Get("analytics.failed") != 1 {
		t.Fatalf("unexpected stats %v", stats.Counts)
	}
}

type eventRecorder struct {
	events []events.SQSEvent
}

func (r *eventRecorder) Handle(ctx context.Context, ev events.SQSEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func TestPollerRun(t *testing.T) {
	q := &fakeQueue{
		batches: [][]*sqs.Message{
			{message("a", "one")},
			{},
			{message("b", "two"), message("c", "three")},
		},
		receiveErr: errors.New("queue gone"),
	}
	rec := &eventRecorder{}
	p := &analytics.Poller{QueueURL: "q", SQS: q, Handler: rec, Log: datasync.NopLogger{}}

	if err := p.Run(context.Background(), 3); err != nil {
		t.Fatalf("running poller: %v", err)
	}
	if len(rec.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(rec.events))
	}
	for i, body := range []string{"one", "two", "three"} {
		recs := rec.events[i].Records
		if len(recs) != 1 || recs[0].Body != body || recs[0].EventSource != "aws:sqs" {
			t.Fatalf("event %d: unexpected records %+v", i, recs)
		}
	}

	err := p.Run(context.Background(), 0)
	if err == nil || errors.Cause(err).Error() != "queue gone" {
		t.Fatalf("expected receive error, got %v", err)
	}
}

func TestPollerRunStopsOnFailingMessages(t *testing.T) {
	bad := `{"Type":"Notification"}`
	q := &fakeQueue{batches: [][]*sqs.Message{
		{message("a", bad)},
		{message("a", bad)},
		{message("b", "never received")},
	}}
	h, _, stats := newHandler(seededStore())
	p := &analytics.Poller{QueueURL: "q", SQS: q, Handler: h, Log: datasync.NopLogger{}}

	if err := p.Run(context.Background(), 2); err != nil {
		t.Fatalf("running poller: %v", err)
	}
	if len(q.deleted) != 0 {
		t.Fatalf("failed messages must stay on the queue, deleted %v", q.deleted)
	}
	if len(q.batches) != 1 {
		t.Fatalf("expected to stop after 2 messages, %d batches left", len(q.batches))
	}
	if stats.Get("analytics.failed") != 2 {
		t.Fatalf("unexpected stats %v", stats.Counts)
	}
}

func TestPollerRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := &fakeQueue{batches: [][]*sqs.Message{{message("a", "one")}}}
	p := &analytics.Poller{QueueURL: "q", SQS: q, Handler: &eventRecorder{}, Log: datasync.NopLogger{}}
	if err := p.Run(ctx, 0); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if len(q.batches) != 1 {
		t.Fatal("expected no receive after cancellation")
	}
}

func TestMainOneShot(t *testing.T) {
	m := analytics.NewMain()
	m.Bucket = bucket
	m.Store = seededStore()
	if err := m.Run(); err != nil {
		t.Fatalf("running main: %v", err)
	}

	m.Key = "population/missing.json"
	if err := m.Run(); err == nil {
		t.Fatal("expected an error for a missing population object")
	}
}

func TestMainQueue(t *testing.T) {
	q := &fakeQueue{batches: [][]*sqs.Message{{message("a", snsBody(t, s3Event(t, bucket, popKey)))}}}
	m := analytics.NewMain()
	m.QueueURL = "q"
	m.MaxMessages = 1
	m.Store = seededStore()
	m.SQS = q
	if err := m.Run(); err != nil {
		t.Fatalf("running main: %v", err)
	}
	if !reflect.DeepEqual(q.deleted, []string{"rh-a"}) {
		t.Fatalf("unexpected deletions %v", q.deleted)
	}
}
