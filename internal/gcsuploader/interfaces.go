package gcsuploader

import "context"

// ObjectStore writes and reads whole objects. It enables mocking of
// storage in tests.
type ObjectStore interface {
	// Put writes data under bucket/object and returns the object URI.
	Put(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)

	// Get downloads the object at a gs:// URI.
	Get(ctx context.Context, gcsURI string) ([]byte, error)
}

var _ ObjectStore = (*GCSStore)(nil)
