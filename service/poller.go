package service

import (
	"context"

	"github.com/rs/zerolog"

	"reel-ingest/constant"
	"reel-ingest/entities"
	"reel-ingest/pkg/streaming"
)

// Poller answers whether a playable stream reference exists for a record,
// resolving the upload handle first when no durable handle is known yet.
// It is idempotent and side-effect free; the caller owns retry cadence
// because every call spends provider API quota.
type Poller interface {
	CheckReady(ctx context.Context, record *entities.ContentRecord) Outcome
}

type poller struct {
	provider StreamingProvider
	resolver Resolver
}

func NewPoller(provider StreamingProvider, resolver Resolver) Poller {
	return &poller{
		provider: provider,
		resolver: resolver,
	}
}

func (p *poller) CheckReady(ctx context.Context, record *entities.ContentRecord) Outcome {
	assetHandle := record.AssetHandle
	freshlyResolved := false

	if assetHandle == "" {
		out := p.resolver.Resolve(ctx, record.UploadHandle)
		if out.Kind != OutcomeResolved {
			return out
		}
		assetHandle = out.AssetHandle
		freshlyResolved = true
	}

	asset, err := p.provider.GetAsset(ctx, assetHandle)
	if err != nil {
		// Covers transport failures and a provider-side 404; neither verdict
		// is final, so the record stays untouched and the user can retry.
		return Transient(err)
	}

	if asset.Status != streaming.AssetStatusReady {
		zerolog.Ctx(ctx).Debug().
			Str("asset_handle", assetHandle).
			Str("status", asset.Status).
			Msg("asset not ready")
		if freshlyResolved {
			// Persist the durable handle even though playback is not there
			// yet; later checks then skip the upload-status round trip.
			return Resolved(assetHandle)
		}
		return NotYetAvailable()
	}

	for _, entry := range asset.PlaybackEntries {
		if entry.Policy == streaming.PlaybackPolicyPublic {
			return Ready(assetHandle, entry.ID)
		}
	}

	zerolog.Ctx(ctx).Warn().Str("asset_handle", assetHandle).Msg("ready asset has no public playback entry")
	return Permanent(constant.FailureKindNoPlayableVariant, ErrNoPlayableVariant)
}
