package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"reel-ingest/constant"
	"reel-ingest/pkg/streaming"
)

// Resolver translates a transient upload handle into a durable asset handle
// once the provider has accepted the file.
type Resolver interface {
	Resolve(ctx context.Context, uploadHandle string) Outcome
}

type resolver struct {
	provider StreamingProvider
}

func NewResolver(provider StreamingProvider) Resolver {
	return &resolver{
		provider: provider,
	}
}

func (r *resolver) Resolve(ctx context.Context, uploadHandle string) Outcome {
	if uploadHandle == "" {
		return Transient(fmt.Errorf("empty upload handle"))
	}

	upload, err := r.provider.GetUpload(ctx, uploadHandle)
	if errors.Is(err, streaming.ErrNotFound) {
		zerolog.Ctx(ctx).Warn().Str("upload_handle", uploadHandle).Msg("upload handle unknown to provider")
		return Permanent(constant.FailureKindHandleExpired, ErrHandleExpired)
	}
	if err != nil {
		return Transient(err)
	}

	// Until conversion completes the provider echoes the upload's own id in
	// the asset field. That is the same "still container-processing" answer
	// as an empty field, not a durable handle.
	if upload.AssetID == "" || upload.AssetID == uploadHandle {
		return NotYetAvailable()
	}

	return Resolved(upload.AssetID)
}
