// Package datasync holds the pieces shared by the population fetcher, the
// time-series archive mirror, and the analytics handler.
//
// Each of the three jobs is a straight line: a network call, a transform, and
// a storage call. What they have in common lives here.
//
// 1. ObjectStore
//
//    Every job reads from or writes to an object store through the
//    ObjectStore interface. The aws/s3 package implements it on the AWS SDK
//    and the minio package implements it for S3-compatible services. The
//    storage package picks one from configuration. ObjectInfo.Digest is the
//    store's content checksum with any quoting removed; for a single-part
//    upload it is the hex MD5 of the object's bytes, which is what the
//    archive mirror compares against when deciding whether to upload.
//
// 2. Logger and Statter
//
//    Jobs report what they did through a Logger (Printf for normal output,
//    Debugf for verbose output) and count what they did through a Statter.
//    NopLogger and NopStatter are safe defaults. The prom package provides a
//    Statter that can be pushed to a Prometheus Pushgateway when a batch run
//    finishes.
package datasync
