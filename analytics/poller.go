package analytics

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
)

// EventHandler handles one SQS event.
type EventHandler interface {
	Handle(ctx context.Context, ev events.SQSEvent) error
}

// Poller feeds messages from an SQS queue to an EventHandler, for running
// the analytics outside Lambda. Messages are deleted only after they are
// handled successfully; failed ones become visible again after the queue's
// visibility timeout, which gives the same retry and dead-letter behavior
// as the Lambda trigger.
type Poller struct {
	QueueURL    string
	WaitSeconds int64
	SQS         sqsiface.SQSAPI
	Handler     EventHandler
	Log         datasync.Logger
}

// Poll receives one batch and handles each message as its own event. It
// returns how many messages were received and how many of those were
// handled successfully.
func (p *Poller) Poll(ctx context.Context) (received, handled int, err error) {
	out, err := p.SQS.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(p.QueueURL),
		MaxNumberOfMessages: aws.Int64(10),
		WaitTimeSeconds:     aws.Int64(p.WaitSeconds),
	})
	if err != nil {
		return 0, 0, errors.Wrap(err, "receiving messages")
	}
	received = len(out.Messages)
	for _, msg := range out.Messages {
		ev := events.SQSEvent{Records: []events.SQSMessage{{
			MessageId:     aws.StringValue(msg.MessageId),
			ReceiptHandle: aws.StringValue(msg.ReceiptHandle),
			Body:          aws.StringValue(msg.Body),
			EventSource:   "aws:sqs",
		}}}
		if err := p.Handler.Handle(ctx, ev); err != nil {
			p.Log.Printf("leaving message %s for redelivery: %v", aws.StringValue(msg.MessageId), err)
			continue
		}
		_, err := p.SQS.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(p.QueueURL),
			ReceiptHandle: msg.ReceiptHandle,
		})
		if err != nil {
			return received, handled, errors.Wrapf(err, "deleting message %s", aws.StringValue(msg.MessageId))
		}
		handled++
	}
	return received, handled, nil
}

// Run polls until ctx is done, receiving fails, or max messages have been
// received, whether or not they were handled. max <= 0 means no limit.
func (p *Poller) Run(ctx context.Context, max int) error {
	seen := 0
	for max <= 0 || seen < max {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, _, err := p.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		seen += n
	}
	return nil
}
