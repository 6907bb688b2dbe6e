// Package minio implements datasync.ObjectStore for S3-compatible services
// using the MinIO client.
package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
)

// Store is a datasync.ObjectStore backed by a MinIO client.
type Store struct {
	client *minio.Client
}

// Config holds what is needed to reach an S3-compatible endpoint.
type Config struct {
	// Endpoint is host:port, or a URL whose scheme decides Secure.
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

// NewStore connects a Store to the configured endpoint.
func NewStore(cfg Config) (*Store, error) {
	host, secure, err := splitEndpoint(cfg.Endpoint, cfg.Secure)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating minio client")
	}
	return &Store{client: client}, nil
}

// splitEndpoint accepts either "host:port" or "http(s)://host:port".
func splitEndpoint(endpoint string, secure bool) (string, bool, error) {
	if endpoint == "" {
		return "", false, errors.New("minio endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, secure, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, errors.Wrapf(err, "parsing endpoint %q", endpoint)
	}
	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, errors.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}

// List returns every object under prefix along with its unquoted ETag.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]datasync.ObjectInfo, error) {
	var objs []datasync.ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrapf(obj.Err, "listing %s/%s", bucket, prefix)
		}
		objs = append(objs, datasync.ObjectInfo{
			Key:    obj.Key,
			Digest: datasync.TrimETag(obj.ETag),
			Size:   obj.Size,
		})
	}
	return objs, nil
}

// Get opens key for reading. A missing key yields datasync.ErrNotFound.
func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s/%s", bucket, key)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errors.Wrapf(datasync.ErrNotFound, "fetching %s/%s", bucket, key)
		}
		return nil, errors.Wrapf(err, "fetching %s/%s", bucket, key)
	}
	return obj, nil
}

// Put writes body to key in a single upload, replacing any existing object.
func (s *Store) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrapf(err, "putting %s/%s", bucket, key)
	}
	return nil
}
