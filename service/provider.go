package service

import (
	"context"
	"io"

	"reel-ingest/pkg/streaming"
)

// StreamingProvider is the slice of the provider API the reconciliation core
// consumes; satisfied by *streaming.Client and by test doubles.
type StreamingProvider interface {
	CreateUpload(ctx context.Context) (*streaming.Upload, error)
	GetUpload(ctx context.Context, uploadHandle string) (*streaming.Upload, error)
	GetAsset(ctx context.Context, assetHandle string) (*streaming.Asset, error)
	DeleteAsset(ctx context.Context, assetHandle string) error
	UploadSource(ctx context.Context, uploadURL string, size int64, r io.Reader) error
}

// StagingStore holds user-submitted source files until the provider has
// ingested them; satisfied by *staging.Store.
type StagingStore interface {
	Fetch(ctx context.Context, object string) (io.ReadCloser, int64, error)
	Remove(ctx context.Context, object string) error
}

// OrphanPublisher records provider assets that survived a cascading delete so
// the sweep consumer can retry their removal.
type OrphanPublisher interface {
	PublishOrphanedAsset(ctx context.Context, recordId, assetHandle string) error
}
