package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"reel-ingest/dto"
	"reel-ingest/service"
)

type ServiceDependencies struct {
	Provider service.StreamingProvider
}

// OrphanSweepHandler retries the provider-side delete of an asset that
// survived a cascading delete. DeleteAsset treats an already-gone asset as
// success, so redelivered messages are harmless.
func OrphanSweepHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var orphan dto.OrphanedAssetMessage
	if err := json.Unmarshal(msg.Body, &orphan); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal orphaned asset message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("record_id", orphan.RecordID.String()).
		Str("asset_handle", orphan.AssetHandle).
		Msg("sweeping orphaned asset")

	if err := deps.Provider.DeleteAsset(ctx, orphan.AssetHandle); err != nil {
		return err
	}

	return nil
}
