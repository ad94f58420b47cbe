// Package s3 provides a blobstore.Store implementation backed by Amazon S3,
// plus a DynamoDB-backed pointer for atomically tracking the latest
// snapshot across concurrent writers.
//
// Uploads stream through the S3 transfer manager, so snapshots larger than
// memory never buffer whole.
package s3
