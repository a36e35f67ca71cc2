package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reel-ingest/constant"
	"reel-ingest/entities"
	"reel-ingest/repository"
)

// Submitter hands a staged source file to the streaming provider and creates
// the ContentRecord the reconciler will later advance. The record starts in
// PROCESSING with only the transient upload handle populated.
type Submitter interface {
	Submit(ctx context.Context, ownerId uuid.UUID, sourceObject string) (*entities.ContentRecord, error)
}

type submitter struct {
	repo     repository.ContentRepository
	provider StreamingProvider
	staging  StagingStore
}

func NewSubmitter(repo repository.ContentRepository, provider StreamingProvider, staging StagingStore) Submitter {
	return &submitter{
		repo:     repo,
		provider: provider,
		staging:  staging,
	}
}

func (s *submitter) Submit(ctx context.Context, ownerId uuid.UUID, sourceObject string) (*entities.ContentRecord, error) {
	upload, err := s.provider.CreateUpload(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create provider upload")
		return nil, err
	}

	source, size, err := s.staging.Fetch(ctx, sourceObject)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("source_object", sourceObject).Msg("failed to fetch staged source")
		return nil, err
	}
	defer source.Close()

	if err := s.provider.UploadSource(ctx, upload.URL, size, source); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("upload_handle", upload.ID).Msg("failed to hand source to provider")
		return nil, err
	}

	record := &entities.ContentRecord{
		ID:             uuid.New(),
		OwnerID:        ownerId,
		UploadHandle:   upload.ID,
		SourceObject:   sourceObject,
		LifecycleState: constant.LifecycleStateProcessing,
	}
	if err := s.repo.CreateContentRecord(ctx, record); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to create content record")
		return nil, err
	}

	if err := s.repo.AdjustOwnerVideoCount(ctx, ownerId, 1); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("owner_id", ownerId.String()).Msg("failed to increment owner video count")
	}

	zerolog.Ctx(ctx).Info().
		Str("record_id", record.ID.String()).
		Str("upload_handle", upload.ID).
		Msg("video submitted for processing")

	return record, nil
}
