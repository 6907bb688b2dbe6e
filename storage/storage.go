// Package storage opens the configured datasync.ObjectStore.
package storage

import (
	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
	"github.com/rearcquest/datasync/aws/s3"
	"github.com/rearcquest/datasync/minio"
)

// Options selects and configures an object store. It is embedded in each
// job's Main so the same flags apply to all of them.
type Options struct {
	Backend   string `help:"Object store implementation: s3 or minio."`
	Region    string `help:"AWS region (also sent to minio)."`
	Endpoint  string `help:"Custom S3-compatible endpoint. Required for minio."`
	PathStyle bool   `help:"Use path-style bucket addressing for s3."`
	AccessKey string `help:"Static access key. Empty uses the AWS default credential chain (s3 only)."`
	SecretKey string `help:"Static secret key."`
	Secure    bool   `help:"Use TLS for a minio endpoint given as host:port."`
}

// NewOptions returns Options that talk to AWS S3 in us-east-1 with the
// default credential chain.
func NewOptions() Options {
	return Options{
		Backend: "s3",
		Region:  "us-east-1",
		Secure:  true,
	}
}

// Open builds the ObjectStore described by o.
func (o Options) Open() (datasync.ObjectStore, error) {
	switch o.Backend {
	case "", "s3":
		opts := []s3.Option{s3.OptRegion(o.Region), s3.OptPathStyle(o.PathStyle)}
		if o.Endpoint != "" {
			opts = append(opts, s3.OptEndpoint(o.Endpoint))
		}
		if o.AccessKey != "" {
			opts = append(opts, s3.OptStaticCredentials(o.AccessKey, o.SecretKey))
		}
		st, err := s3.NewStore(opts...)
		if err != nil {
			return nil, errors.Wrap(err, "opening s3 store")
		}
		return st, nil
	case "minio":
		st, err := minio.NewStore(minio.Config{
			Endpoint:  o.Endpoint,
			AccessKey: o.AccessKey,
			SecretKey: o.SecretKey,
			Region:    o.Region,
			Secure:    o.Secure,
		})
		if err != nil {
			return nil, errors.Wrap(err, "opening minio store")
		}
		return st, nil
	default:
		return nil, errors.Errorf("unknown object store %q", o.Backend)
	}
}
