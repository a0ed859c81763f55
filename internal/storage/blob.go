package storage

import "io"

// BlobStore holds uploaded images (form headers, question illustrations).
// URL returns the path a client can fetch the blob from.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	URL(key string) (string, error)
}
