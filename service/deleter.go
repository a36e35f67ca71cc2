package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"reel-ingest/repository"
)

// Deleter removes a ContentRecord together with its provider asset, staged
// source object and dependent records. Only the final store delete is fatal:
// an orphaned provider asset or a stray comment is a recoverable cost, a
// half-deleted parent record is not.
type Deleter interface {
	Delete(ctx context.Context, recordId, requesterId uuid.UUID) error
}

type deleter struct {
	repo     repository.ContentRepository
	provider StreamingProvider
	staging  StagingStore
	orphans  OrphanPublisher
}

func NewDeleter(repo repository.ContentRepository, provider StreamingProvider, staging StagingStore, orphans OrphanPublisher) Deleter {
	return &deleter{
		repo:     repo,
		provider: provider,
		staging:  staging,
		orphans:  orphans,
	}
}

func (d *deleter) Delete(ctx context.Context, recordId, requesterId uuid.UUID) error {
	record, err := d.repo.FindContentRecordById(ctx, recordId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if record.OwnerID != requesterId {
		return ErrForbidden
	}

	logger := zerolog.Ctx(ctx).With().Str("record_id", recordId.String()).Logger()

	if record.AssetHandle != "" {
		if err := d.provider.DeleteAsset(ctx, record.AssetHandle); err != nil {
			logger.Warn().Err(err).
				Str("asset_handle", record.AssetHandle).
				Msg("provider asset delete failed, asset orphaned")
			if pubErr := d.orphans.PublishOrphanedAsset(ctx, recordId.String(), record.AssetHandle); pubErr != nil {
				logger.Error().Err(pubErr).Msg("failed to publish orphaned asset event")
			}
		}
	}

	if record.SourceObject != "" {
		if err := d.staging.Remove(ctx, record.SourceObject); err != nil {
			logger.Warn().Err(err).
				Str("source_object", record.SourceObject).
				Msg("staged source delete failed")
		}
	}

	d.deleteDependents(ctx, logger, recordId)

	// The one step that must succeed. Earlier steps are idempotent, so the
	// caller can simply retry the whole operation.
	if err := d.repo.DeleteContentRecord(ctx, recordId); err != nil {
		logger.Error().Err(err).Msg("failed to delete content record")
		return err
	}

	if err := d.repo.AdjustOwnerVideoCount(ctx, record.OwnerID, -1); err != nil {
		logger.Warn().Err(err).Msg("failed to decrement owner video count")
	}

	logger.Info().Msg("content record deleted")
	return nil
}

func (d *deleter) deleteDependents(ctx context.Context, logger zerolog.Logger, recordId uuid.UUID) {
	failed := 0

	comments, err := d.repo.ListCommentsByContentId(ctx, recordId)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to list comments")
	}
	for _, comment := range comments {
		if err := d.repo.DeleteComment(ctx, comment.ID); err != nil {
			failed++
			logger.Warn().Err(err).Str("comment_id", comment.ID.String()).Msg("failed to delete comment")
		}
	}

	notifications, err := d.repo.ListNotificationsByContentId(ctx, recordId)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to list notifications")
	}
	for _, notification := range notifications {
		if err := d.repo.DeleteNotification(ctx, notification.ID); err != nil {
			failed++
			logger.Warn().Err(err).Str("notification_id", notification.ID.String()).Msg("failed to delete notification")
		}
	}

	if failed > 0 {
		logger.Warn().Int("failed", failed).Msg("partial dependent cleanup, continuing with record delete")
	}
}
