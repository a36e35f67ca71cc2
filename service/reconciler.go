package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"reel-ingest/constant"
	"reel-ingest/entities"
	"reel-ingest/repository"
)

// Reconciler is the only writer of lifecycle fields on a ContentRecord.
// Every mutation goes through a version-guarded compare-and-set, so a
// reconcile attempt working from a stale snapshot loses to the concurrent
// attempt that committed first instead of regressing its state.
type Reconciler interface {
	ApplyResolution(ctx context.Context, record *entities.ContentRecord, outcome Outcome) (*entities.ContentRecord, error)
	AttemptReconcile(ctx context.Context, recordId uuid.UUID) (*entities.ContentRecord, error)
}

type reconciler struct {
	repo   repository.ContentRepository
	poller Poller
}

func NewReconciler(repo repository.ContentRepository, poller Poller) Reconciler {
	return &reconciler{
		repo:   repo,
		poller: poller,
	}
}

// AttemptReconcile performs one caller-driven reconciliation round: load the
// record, ask the provider where processing stands, apply the outcome. There
// is no internal retry or sleep; the UI decides cadence.
func (r *reconciler) AttemptReconcile(ctx context.Context, recordId uuid.UUID) (*entities.ContentRecord, error) {
	record, err := r.repo.FindContentRecordById(ctx, recordId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Terminal records never change again; polling them only spends quota.
	if record.LifecycleState.Terminal() {
		return record, nil
	}

	outcome := r.poller.CheckReady(ctx, record)
	return r.ApplyResolution(ctx, record, outcome)
}

func (r *reconciler) ApplyResolution(ctx context.Context, record *entities.ContentRecord, outcome Outcome) (*entities.ContentRecord, error) {
	switch outcome.Kind {
	case OutcomeNotYetAvailable:
		return record, nil

	case OutcomeTransient:
		// Surfaced as a retryable failure; the record is never mutated.
		return record, fmt.Errorf("reconcile attempt failed, retry later: %w", outcome.Err)

	case OutcomeResolved:
		return r.applyResolved(ctx, record, outcome)

	case OutcomeReady:
		return r.applyReady(ctx, record, outcome)

	case OutcomePermanent:
		return r.applyPermanent(ctx, record, outcome)

	default:
		return record, fmt.Errorf("unknown outcome kind %q", outcome.Kind)
	}
}

func (r *reconciler) applyResolved(ctx context.Context, record *entities.ContentRecord, outcome Outcome) (*entities.ContentRecord, error) {
	if record.LifecycleState.Terminal() {
		zerolog.Ctx(ctx).Info().
			Str("record_id", record.ID.String()).
			Str("state", record.LifecycleState.String()).
			Msg("dropping resolved outcome for terminal record")
		return record, nil
	}
	if record.AssetHandle == outcome.AssetHandle {
		return record, nil
	}

	updates := map[string]interface{}{
		"asset_handle": outcome.AssetHandle,
	}
	if record.AssetHandle != "" {
		// The provider reissued a new asset for the same upload. The handle
		// moves to the new value and the cached reference no longer applies.
		zerolog.Ctx(ctx).Warn().
			Str("record_id", record.ID.String()).
			Str("old_asset_handle", record.AssetHandle).
			Str("new_asset_handle", outcome.AssetHandle).
			Msg("asset handle reissued by provider")
		updates["stream_reference"] = ""
	}

	return r.commit(ctx, record, updates)
}

func (r *reconciler) applyReady(ctx context.Context, record *entities.ContentRecord, outcome Outcome) (*entities.ContentRecord, error) {
	if record.LifecycleState == constant.LifecycleStateFailed {
		zerolog.Ctx(ctx).Info().
			Str("record_id", record.ID.String()).
			Msg("dropping ready outcome for failed record")
		return record, nil
	}
	if record.LifecycleState == constant.LifecycleStateReady {
		if record.AssetHandle == outcome.AssetHandle && record.StreamReference != outcome.StreamReference {
			zerolog.Ctx(ctx).Info().
				Str("record_id", record.ID.String()).
				Str("stream_reference", record.StreamReference).
				Msg("dropping stale stream reference for ready record")
		}
		return record, nil
	}

	return r.commit(ctx, record, map[string]interface{}{
		"asset_handle":     outcome.AssetHandle,
		"stream_reference": outcome.StreamReference,
		"lifecycle_state":  constant.LifecycleStateReady,
	})
}

func (r *reconciler) applyPermanent(ctx context.Context, record *entities.ContentRecord, outcome Outcome) (*entities.ContentRecord, error) {
	if record.LifecycleState.Terminal() {
		zerolog.Ctx(ctx).Info().
			Str("record_id", record.ID.String()).
			Str("state", record.LifecycleState.String()).
			Msg("dropping permanent outcome for terminal record")
		return record, nil
	}

	zerolog.Ctx(ctx).Warn().
		Str("record_id", record.ID.String()).
		Str("failure_kind", string(outcome.Failure)).
		Err(outcome.Err).
		Msg("record processing failed permanently")

	return r.commit(ctx, record, map[string]interface{}{
		"lifecycle_state": constant.LifecycleStateFailed,
		"failure_kind":    outcome.Failure,
	})
}

// commit applies updates through the version-guarded CAS. A lost race is not
// an error: the concurrent writer's state is causally newer, so the fresh
// record is returned unchanged by us.
func (r *reconciler) commit(ctx context.Context, record *entities.ContentRecord, updates map[string]interface{}) (*entities.ContentRecord, error) {
	applied, err := r.repo.CompareAndSetContentRecord(ctx, record.ID, record.Version, updates)
	if err != nil {
		return record, err
	}
	if !applied {
		zerolog.Ctx(ctx).Info().
			Str("record_id", record.ID.String()).
			Int64("snapshot_version", record.Version).
			Msg("stale reconcile attempt dropped")
	}

	fresh, err := r.repo.FindContentRecordById(ctx, record.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Deleted underneath us; the deleter won.
		return nil, ErrNotFound
	}
	if err != nil {
		return record, err
	}
	return fresh, nil
}
