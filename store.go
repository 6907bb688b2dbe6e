package datasync

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is the cause of errors returned by ObjectStore.Get when the
// requested key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object as reported by a listing.
type ObjectInfo struct {
	Key    string
	Digest string
	Size   int64
}

// ObjectStore is the subset of an object storage service used by the jobs.
type ObjectStore interface {
	// List returns every object in bucket whose key starts with prefix,
	// following pagination until the listing is exhausted.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// Get opens the object for reading. The caller must close it.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Put writes body to key, replacing any existing object.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// TrimETag strips the double quotes S3-style services put around ETags.
func TrimETag(etag string) string {
	return strings.Trim(etag, `"`)
}

// DigestIndex maps each object's key to its digest.
func DigestIndex(objs []ObjectInfo) map[string]string {
	idx := make(map[string]string, len(objs))
	for _, o := range objs {
		idx[o.Key] = o.Digest
	}
	return idx
}

// ReadAll gets key from store and returns its full contents.
func ReadAll(ctx context.Context, store ObjectStore, bucket, key string) ([]byte, error) {
	rc, err := store.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "reading s3://%s/%s", bucket, key)
	}
	return data, nil
}
