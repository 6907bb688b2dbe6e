// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
)

// Option is a functional option type for s3.Store.
type Option func(s *Store)

// OptRegion is an Option which sets the AWS region for a Store.
func OptRegion(region string) Option {
	return func(s *Store) {
		s.region = region
	}
}

// OptEndpoint points the Store at an S3-compatible endpoint instead of AWS.
func OptEndpoint(endpoint string) Option {
	return func(s *Store) {
		s.endpoint = endpoint
	}
}

// OptPathStyle makes the Store address buckets as a path component rather
// than as a subdomain. Most S3-compatible services and fakes need this.
func OptPathStyle(pathStyle bool) Option {
	return func(s *Store) {
		s.pathStyle = pathStyle
	}
}

// OptStaticCredentials sets fixed credentials instead of the default
// provider chain (environment, shared config, instance role).
func OptStaticCredentials(id, secret string) Option {
	return func(s *Store) {
		s.creds = credentials.NewStaticCredentials(id, secret, "")
	}
}

// OptPageSize sets the number of keys requested per list call.
func OptPageSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// OptClient makes the Store use an existing client. Region, endpoint, and
// credential options are ignored when it is given.
func OptClient(client s3iface.S3API) Option {
	return func(s *Store) {
		s.s3 = client
	}
}

// Store is a datasync.ObjectStore backed by Amazon S3.
type Store struct {
	region    string
	endpoint  string
	pathStyle bool
	creds     *credentials.Credentials
	pageSize  int64

	sess *session.Session
	s3   s3iface.S3API
}

// NewStore returns a new Store with the options applied.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		region:   "us-east-1",
		pageSize: 1000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.s3 != nil {
		return s, nil
	}

	cfg := &aws.Config{
		Region: aws.String(s.region),
	}
	if s.endpoint != "" {
		cfg.Endpoint = aws.String(s.endpoint)
	}
	if s.pathStyle {
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if s.creds != nil {
		cfg.Credentials = s.creds
	}
	var err error
	s.sess, err = session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "getting new session")
	}
	s.s3 = s3.New(s.sess)
	return s, nil
}

// Session returns the AWS session the Store was built with, or nil if it
// was given a client through OptClient.
func (s *Store) Session() *session.Session {
	return s.sess
}

// List returns every object under prefix along with its unquoted ETag.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]datasync.ObjectInfo, error) {
	var objs []datasync.ObjectInfo
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int64(s.pageSize),
	}
	err := s.s3.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			objs = append(objs, datasync.ObjectInfo{
				Key:    aws.StringValue(obj.Key),
				Digest: datasync.TrimETag(aws.StringValue(obj.ETag)),
				Size:   aws.Int64Value(obj.Size),
			})
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing s3://%s/%s", bucket, prefix)
	}
	return objs, nil
}

// Get opens key for reading. A missing key yields an error whose cause is
// datasync.ErrNotFound.
func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	result, err := s.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, errors.Wrapf(datasync.ErrNotFound, "fetching s3://%s/%s", bucket, key)
		}
		return nil, errors.Wrapf(err, "fetching s3://%s/%s", bucket, key)
	}
	return result.Body, nil
}

// Put uploads body to key in a single request.
func (s *Store) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	_, err := s.s3.PutObjectWithContext(ctx, input)
	if err != nil {
		return errors.Wrapf(err, "putting s3://%s/%s", bucket, key)
	}
	return nil
}
