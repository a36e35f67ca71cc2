// Package staging wraps the MinIO bucket that holds raw user uploads until
// the streaming provider has ingested them.
package staging

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

type Store struct {
	client *minio.Client
	bucket string
}

func NewStore(client *minio.Client, bucket string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
	}
}

// Fetch opens the staged object for reading and reports its size, so the
// provider handoff can stream it without buffering the whole file.
func (s *Store) Fetch(ctx context.Context, object string) (io.ReadCloser, int64, error) {
	stat, err := s.client.StatObject(ctx, s.bucket, object, minio.StatObjectOptions{})
	if err != nil {
		return nil, 0, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, err
	}
	return obj, stat.Size, nil
}

// Remove deletes the staged object. MinIO treats removal of a missing object
// as success, which keeps cascading-delete retries idempotent.
func (s *Store) Remove(ctx context.Context, object string) error {
	return s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{})
}
