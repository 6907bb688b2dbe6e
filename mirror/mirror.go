// Package mirror keeps a prefix of an object store in sync with a public
// HTTP directory listing, uploading only files whose content changed.
package mirror

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"path"

	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
)

// ListingError is returned when the directory listing itself cannot be
// fetched. It aborts the whole run.
type ListingError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ListingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching listing %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching listing %s: %v", e.URL, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// Mirror copies the files of one listing into Bucket under Prefix.
type Mirror struct {
	ListingURL string
	Bucket     string
	Prefix     string
	UserAgent  string

	Client *http.Client
	Store  datasync.ObjectStore
	Log    datasync.Logger
	Stats  datasync.Statter
}

// Result lists the object keys each file ended up under, by outcome.
type Result struct {
	Listed   int
	Uploaded []string
	Skipped  []string
	Failed   []string
}

// Sync runs one pass. A key is uploaded when it is absent from the store or
// its stored digest differs from the MD5 of the freshly downloaded bytes.
// Files that fail to download are logged and skipped. Failure to list the
// store, fetch the listing, or upload a file ends the run with an error;
// uploads already done stay in place.
func (m *Mirror) Sync(ctx context.Context) (Result, error) {
	var res Result

	objs, err := m.Store.List(ctx, m.Bucket, m.Prefix)
	if err != nil {
		return res, errors.Wrap(err, "listing stored objects")
	}
	index := datasync.DigestIndex(objs)
	m.Log.Printf("found %d existing objects under '%s'", len(index), m.Prefix)

	links, err := m.listing(ctx)
	if err != nil {
		return res, err
	}
	res.Listed = len(links)

	for _, link := range links {
		key := path.Join(m.Prefix, link.Name)
		m.Log.Printf("processing file: %s", link.Name)

		body, status, err := m.get(ctx, link.URL)
		if err != nil {
			m.Log.Printf("failed to download %s: %v", link.URL, err)
			res.Failed = append(res.Failed, key)
			m.Stats.Count("mirror.failed", 1, 1)
			continue
		}
		if status != http.StatusOK {
			m.Log.Printf("failed to download %s. status code: %d", link.URL, status)
			res.Failed = append(res.Failed, key)
			m.Stats.Count("mirror.failed", 1, 1)
			continue
		}

		digest := md5Hex(body)
		if stored, ok := index[key]; ok && stored == digest {
			m.Log.Printf("file %s is already up-to-date. skipping", link.Name)
			res.Skipped = append(res.Skipped, key)
			m.Stats.Count("mirror.skipped", 1, 1)
			continue
		}

		m.Log.Printf("uploading %s to s3://%s/%s", link.Name, m.Bucket, key)
		if err := m.Store.Put(ctx, m.Bucket, key, body, ""); err != nil {
			return res, errors.Wrapf(err, "uploading %s", link.Name)
		}
		index[key] = digest
		res.Uploaded = append(res.Uploaded, key)
		m.Stats.Count("mirror.uploaded", 1, 1)
		m.Stats.Count("mirror.bytes", int64(len(body)), 1)
	}
	m.Log.Printf("sync complete: %d listed, %d uploaded, %d skipped, %d failed",
		res.Listed, len(res.Uploaded), len(res.Skipped), len(res.Failed))
	return res, nil
}

func (m *Mirror) listing(ctx context.Context) ([]Link, error) {
	base, err := url.Parse(m.ListingURL)
	if err != nil {
		return nil, &ListingError{URL: m.ListingURL, Err: err}
	}
	req, err := m.newRequest(ctx, m.ListingURL)
	if err != nil {
		return nil, &ListingError{URL: m.ListingURL, Err: err}
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, &ListingError{URL: m.ListingURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ListingError{URL: m.ListingURL, StatusCode: resp.StatusCode}
	}
	links, err := ParseListing(base, resp.Body)
	if err != nil {
		return nil, &ListingError{URL: m.ListingURL, Err: err}
	}
	return links, nil
}

// get downloads u. A non-nil error means no response was read; otherwise the
// status is returned alongside the body so the caller decides what to skip.
func (m *Mirror) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := m.newRequest(ctx, u)
	if err != nil {
		return nil, 0, err
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Wrap(err, "reading body")
	}
	return body, resp.StatusCode, nil
}

func (m *Mirror) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	return req.WithContext(ctx), nil
}

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
