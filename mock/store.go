package mock

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rearcquest/datasync"
)

// Store is an in-memory datasync.ObjectStore. Digests are the hex MD5 of the
// stored bytes, matching a single-part S3 upload. Every Put is recorded so
// tests can assert exactly what was written.
type Store struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	ctypes  map[string]string

	// Puts lists "bucket/key" for every successful Put, in order.
	Puts []string
	// Gets lists "bucket/key" for every Get, in order.
	Gets []string

	// ListErr, GetErr, and PutErr, when set, are returned by the matching
	// method instead of doing any work.
	ListErr error
	GetErr  error
	PutErr  error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		buckets: make(map[string]map[string][]byte),
		ctypes:  make(map[string]string),
	}
}

func (s *Store) List(ctx context.Context, bucket, prefix string) ([]datasync.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	var objs []datasync.ObjectInfo
	for key, body := range s.buckets[bucket] {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		objs = append(objs, datasync.ObjectInfo{Key: key, Digest: digest(body), Size: int64(len(body))})
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (s *Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Gets = append(s.Gets, bucket+"/"+key)
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	body, ok := s.buckets[bucket][key]
	if !ok {
		return nil, errors.Wrapf(datasync.ErrNotFound, "fetching %s/%s", bucket, key)
	}
	return ioutil.NopCloser(bytes.NewReader(body)), nil
}

func (s *Store) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.set(bucket, key, body)
	s.ctypes[bucket+"/"+key] = contentType
	s.Puts = append(s.Puts, bucket+"/"+key)
	return nil
}

// Seed stores body without recording a Put.
func (s *Store) Seed(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(bucket, key, body)
}

// Object returns the stored bytes for key.
func (s *Store) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.buckets[bucket][key]
	return body, ok
}

// ContentType returns the content type key was last Put with.
func (s *Store) ContentType(bucket, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctypes[bucket+"/"+key]
}

// ResetCalls forgets the recorded Puts and Gets.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Puts = nil
	s.Gets = nil
}

func (s *Store) set(bucket, key string, body []byte) {
	b, ok := s.buckets[bucket]
	if !ok {
		b = make(map[string][]byte)
		s.buckets[bucket] = b
	}
	b[key] = append([]byte(nil), body...)
}

func digest(body []byte) string {
	sum := md5.Sum(body)
	return hex.EncodeToString(sum[:])
}
