package analytics

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// ObjectRef names a stored object.
type ObjectRef struct {
	Bucket string
	Key    string
}

func (r ObjectRef) String() string {
	return "s3://" + r.Bucket + "/" + r.Key
}

// MalformedTriggerError is returned when a trigger payload lacks a field the
// handler needs. Field is the path to the missing or undecodable field.
type MalformedTriggerError struct {
	Field string
	Err   error
}

func (e *MalformedTriggerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed trigger payload at %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed trigger payload: missing %s", e.Field)
}

func (e *MalformedTriggerError) Unwrap() error { return e.Err }

// ParseTrigger unpacks an SQS event whose messages are SNS notifications
// carrying S3 event notifications, and returns every object they name, in
// order.
func ParseTrigger(ev events.SQSEvent) ([]ObjectRef, error) {
	if len(ev.Records) == 0 {
		return nil, &MalformedTriggerError{Field: "Records"}
	}
	var refs []ObjectRef
	for i, msg := range ev.Records {
		field := fmt.Sprintf("Records[%d].body", i)
		if msg.Body == "" {
			return nil, &MalformedTriggerError{Field: field}
		}
		var note events.SNSEntity
		if err := json.Unmarshal([]byte(msg.Body), &note); err != nil {
			return nil, &MalformedTriggerError{Field: field, Err: errors.Wrap(err, "decoding sns envelope")}
		}
		field += ".Message"
		if note.Message == "" {
			return nil, &MalformedTriggerError{Field: field}
		}
		var s3ev events.S3Event
		if err := json.Unmarshal([]byte(note.Message), &s3ev); err != nil {
			return nil, &MalformedTriggerError{Field: field, Err: errors.Wrap(err, "decoding s3 event")}
		}
		if len(s3ev.Records) == 0 {
			return nil, &MalformedTriggerError{Field: field + ".Records"}
		}
		for j, rec := range s3ev.Records {
			recField := fmt.Sprintf("%s.Records[%d].s3", field, j)
			if rec.S3.Bucket.Name == "" {
				return nil, &MalformedTriggerError{Field: recField + ".bucket.name"}
			}
			if rec.S3.Object.Key == "" {
				return nil, &MalformedTriggerError{Field: recField + ".object.key"}
			}
			// S3 notifications form-encode object keys.
			key, err := url.QueryUnescape(rec.S3.Object.Key)
			if err != nil {
				return nil, &MalformedTriggerError{Field: recField + ".object.key", Err: err}
			}
			refs = append(refs, ObjectRef{Bucket: rec.S3.Bucket.Name, Key: key})
		}
	}
	return refs, nil
}
