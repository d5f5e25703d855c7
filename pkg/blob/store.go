// Package blob adapts KalDB's chunk directories to an S3-compatible object
// store. One prefix per chunk: s3://bucket/chunkId/, holding index segments
// plus a <chunkId>.metadata file.
package blob

import "context"

// Store is the blob store adapter contract. Put has no partial-success
// contract: on any sub-file failure the whole operation fails and the
// caller must retry or clean up.
type Store interface {
	// Put uploads every regular file under localDir to uri/.
	Put(ctx context.Context, uri, localDir string) error

	// Exists reports whether uri has any objects under it.
	Exists(ctx context.Context, uri string) (bool, error)

	// List returns the object URIs under uri. If recursive is false, only
	// the immediate children are returned.
	List(ctx context.Context, uri string, recursive bool) ([]string, error)

	// Delete removes every object under uri.
	Delete(ctx context.Context, uri string) error

	// CopyToLocal downloads every object under uri into dir.
	CopyToLocal(ctx context.Context, uri, dir string) error
}
