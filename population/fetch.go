// Package population downloads the US population dataset from the DataUSA
// API and stores the response in object storage.
package population

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
)

// RequestError is returned when the API request fails, either in transport
// or with a non-2xx status. StatusCode is zero for transport failures.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("requesting %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("requesting %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// PayloadError is returned when the API responds successfully with a body
// that is not a JSON object carrying a "data" array.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return "unexpected population payload: " + e.Err.Error()
}

func (e *PayloadError) Unwrap() error { return e.Err }

// Fetcher performs one fetch-and-upload of the population dataset.
type Fetcher struct {
	URL    string
	Bucket string
	Key    string

	Client *http.Client
	Store  datasync.ObjectStore
	Log    datasync.Logger
	Stats  datasync.Statter
}

// payload is the part of the response the fetcher checks. Rows are kept raw
// because the upload must preserve them exactly.
type payload struct {
	Data *[]json.RawMessage `json:"data"`
}

// Fetch issues the GET, validates the response, and uploads it
// pretty-printed with a four space indent, overwriting Key. Nothing is
// uploaded if any step before the upload fails.
func (f *Fetcher) Fetch(ctx context.Context) error {
	f.Log.Printf("fetching population data from %s", f.URL)
	body, err := f.get(ctx)
	if err != nil {
		f.Stats.Count("population.failed", 1, 1)
		return err
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		f.Stats.Count("population.failed", 1, 1)
		return &PayloadError{Err: errors.Wrap(err, "decoding json")}
	}
	if p.Data == nil {
		f.Stats.Count("population.failed", 1, 1)
		return &PayloadError{Err: errors.New(`missing "data" field`)}
	}
	f.Log.Printf("fetched %d population records", len(*p.Data))

	out, err := Indent(body)
	if err != nil {
		return &PayloadError{Err: err}
	}

	f.Log.Printf("uploading population data to s3://%s/%s", f.Bucket, f.Key)
	if err := f.Store.Put(ctx, f.Bucket, f.Key, out, "application/json"); err != nil {
		f.Stats.Count("population.failed", 1, 1)
		return errors.Wrap(err, "uploading population data")
	}
	f.Stats.Count("population.uploaded", 1, 1)
	f.Stats.Gauge("population.records", float64(len(*p.Data)), 1)
	f.Log.Printf("upload complete")
	return nil
}

func (f *Fetcher) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, &RequestError{URL: f.URL, Err: err}
	}
	req = req.WithContext(ctx)
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: f.URL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{URL: f.URL, StatusCode: resp.StatusCode}
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{URL: f.URL, Err: errors.Wrap(err, "reading body")}
	}
	return body, nil
}

// Indent pretty-prints a JSON document with a four space indent, keeping the
// original key order and number formatting.
func Indent(body []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := json.Indent(buf, bytes.TrimSpace(body), "", "    "); err != nil {
		return nil, errors.Wrap(err, "indenting json")
	}
	return buf.Bytes(), nil
}
