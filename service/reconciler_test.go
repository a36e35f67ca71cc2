package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reel-ingest/constant"
	"reel-ingest/entities"
	"reel-ingest/pkg/streaming"
)

func seedRecord(t *testing.T, repo *fakeRepo) *entities.ContentRecord {
	t.Helper()
	record := processingRecord(uuid.New())
	require.NoError(t, repo.CreateContentRecord(context.Background(), record))
	return record
}

func TestApplyResolution_NotYetAvailableIsNoop(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	got, err := reconciler.ApplyResolution(context.Background(), record, NotYetAvailable())
	require.NoError(t, err)
	assert.Equal(t, constant.LifecycleStateProcessing, got.LifecycleState)

	stored, _ := repo.FindContentRecordById(context.Background(), record.ID)
	assert.Equal(t, *record, *stored)
}

func TestApplyResolution_TransientSurfacesErrorWithoutMutation(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	dialErr := errors.New("connection reset")
	_, err := reconciler.ApplyResolution(context.Background(), record, Transient(dialErr))
	require.ErrorIs(t, err, dialErr)

	stored, _ := repo.FindContentRecordById(context.Background(), record.ID)
	assert.Equal(t, constant.LifecycleStateProcessing, stored.LifecycleState)
	assert.Empty(t, stored.AssetHandle)
	assert.Zero(t, stored.Version, "transient outcomes never write")
}

func TestApplyResolution_ResolvedSetsAssetHandleOnly(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	got, err := reconciler.ApplyResolution(context.Background(), record, Resolved("asset-9"))
	require.NoError(t, err)
	assert.Equal(t, "asset-9", got.AssetHandle)
	assert.Equal(t, constant.LifecycleStateProcessing, got.LifecycleState)
	assert.Empty(t, got.StreamReference)

	// Same handle again: nothing to write.
	again, err := reconciler.ApplyResolution(context.Background(), got, Resolved("asset-9"))
	require.NoError(t, err)
	assert.Equal(t, got.Version, again.Version)
}

func TestApplyResolution_ReissuedAssetHandleInvalidatesReference(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	first, err := reconciler.ApplyResolution(context.Background(), record, Resolved("asset-9"))
	require.NoError(t, err)

	second, err := reconciler.ApplyResolution(context.Background(), first, Resolved("asset-10"))
	require.NoError(t, err)
	assert.Equal(t, "asset-10", second.AssetHandle)
	assert.Empty(t, second.StreamReference)
}

func TestApplyResolution_ReadyTransition(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	got, err := reconciler.ApplyResolution(context.Background(), record, Ready("asset-9", "play-1"))
	require.NoError(t, err)
	assert.Equal(t, constant.LifecycleStateReady, got.LifecycleState)
	assert.Equal(t, "asset-9", got.AssetHandle)
	assert.Equal(t, "play-1", got.StreamReference)
}

func TestApplyResolution_ReadyIsStable(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	ready, err := reconciler.ApplyResolution(context.Background(), record, Ready("asset-9", "play-1"))
	require.NoError(t, err)

	// A different reference for the same asset handle is dropped.
	got, err := reconciler.ApplyResolution(context.Background(), ready, Ready("asset-9", "play-2"))
	require.NoError(t, err)
	assert.Equal(t, "play-1", got.StreamReference)

	stored, _ := repo.FindContentRecordById(context.Background(), record.ID)
	assert.Equal(t, "play-1", stored.StreamReference)
}

func TestApplyResolution_PermanentTransition(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	got, err := reconciler.ApplyResolution(context.Background(), record, Permanent(constant.FailureKindHandleExpired, ErrHandleExpired))
	require.NoError(t, err)
	assert.Equal(t, constant.LifecycleStateFailed, got.LifecycleState)
	assert.Equal(t, constant.FailureKindHandleExpired, got.FailureKind)
	assert.Empty(t, got.AssetHandle)
}

func TestApplyResolution_NoTransitionOutOfTerminalStates(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	ready, err := reconciler.ApplyResolution(context.Background(), record, Ready("asset-9", "play-1"))
	require.NoError(t, err)

	got, err := reconciler.ApplyResolution(context.Background(), ready, Permanent(constant.FailureKindNoPlayableVariant, ErrNoPlayableVariant))
	require.NoError(t, err)
	assert.Equal(t, constant.LifecycleStateReady, got.LifecycleState)
	assert.Equal(t, constant.FailureKindNone, got.FailureKind)
}

// Two refresh taps race: both load the same snapshot, B commits Ready first,
// A then tries to apply Permanent from its stale view. The version guard must
// keep the record ready.
func TestApplyResolution_StaleSnapshotLosesRace(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	snapshotA, err := repo.FindContentRecordById(context.Background(), record.ID)
	require.NoError(t, err)
	snapshotB, err := repo.FindContentRecordById(context.Background(), record.ID)
	require.NoError(t, err)

	_, err = reconciler.ApplyResolution(context.Background(), snapshotB, Ready("asset-9", "play-1"))
	require.NoError(t, err)

	got, err := reconciler.ApplyResolution(context.Background(), snapshotA, Permanent(constant.FailureKindHandleExpired, ErrHandleExpired))
	require.NoError(t, err)
	assert.Equal(t, constant.LifecycleStateReady, got.LifecycleState)

	stored, _ := repo.FindContentRecordById(context.Background(), record.ID)
	assert.Equal(t, constant.LifecycleStateReady, stored.LifecycleState)
	assert.Equal(t, "play-1", stored.StreamReference)
}

func TestApplyResolution_StaleReadyLosesToNewerFailed(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	reconciler := NewReconciler(repo, nil)

	snapshotA, _ := repo.FindContentRecordById(context.Background(), record.ID)
	snapshotB, _ := repo.FindContentRecordById(context.Background(), record.ID)

	_, err := reconciler.ApplyResolution(context.Background(), snapshotA, Permanent(constant.FailureKindNoPlayableVariant, ErrNoPlayableVariant))
	require.NoError(t, err)

	got, err := reconciler.ApplyResolution(context.Background(), snapshotB, Ready("asset-9", "play-1"))
	require.NoError(t, err)
	assert.Equal(t, constant.LifecycleStateFailed, got.LifecycleState)
	assert.Empty(t, got.StreamReference)
}

func TestAttemptReconcile_NotFound(t *testing.T) {
	reconciler := NewReconciler(newFakeRepo(), nil)

	_, err := reconciler.AttemptReconcile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttemptReconcile_TerminalRecordSkipsProvider(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)
	record.LifecycleState = constant.LifecycleStateFailed
	repo.records[record.ID] = record

	provider := &fakeProvider{}
	reconciler := NewReconciler(repo, newPoller(provider))

	got, err := reconciler.AttemptReconcile(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, constant.LifecycleStateFailed, got.LifecycleState)
	assert.Zero(t, provider.getUploadCalls)
	assert.Zero(t, provider.getAssetCalls)
}

// Full processing window: three "still working" rounds, then the durable
// handle appears, then one not-ready round, then playback.
func TestAttemptReconcile_ConvergesToReady(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)

	waiting := streaming.Upload{ID: record.UploadHandle, Status: streaming.UploadStatusWaiting}
	converted := streaming.Upload{ID: record.UploadHandle, Status: streaming.UploadStatusAssetCreated, AssetID: "asset-9"}
	provider := &fakeProvider{
		getUploadFns: []func() (*streaming.Upload, error){
			uploadAnswer(waiting),
			uploadAnswer(waiting),
			uploadAnswer(waiting),
			uploadAnswer(converted),
		},
		getAssetFns: []func() (*streaming.Asset, error){
			assetAnswer(streaming.Asset{ID: "asset-9", Status: streaming.AssetStatusPreparing}),
			assetAnswer(streaming.Asset{
				ID:              "asset-9",
				Status:          streaming.AssetStatusReady,
				PlaybackEntries: []streaming.PlaybackEntry{{ID: "play-1", Policy: streaming.PlaybackPolicyPublic}},
			}),
		},
	}
	reconciler := NewReconciler(repo, newPoller(provider))

	var got *entities.ContentRecord
	var err error
	for i := 0; i < 5; i++ {
		got, err = reconciler.AttemptReconcile(context.Background(), record.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, constant.LifecycleStateReady, got.LifecycleState)
	assert.Equal(t, record.UploadHandle, got.UploadHandle)
	assert.Equal(t, "asset-9", got.AssetHandle)
	assert.Equal(t, "play-1", got.StreamReference)
}

func TestAttemptReconcile_ConvergesToFailedOnExpiredHandle(t *testing.T) {
	repo := newFakeRepo()
	record := seedRecord(t, repo)

	waiting := streaming.Upload{ID: record.UploadHandle, Status: streaming.UploadStatusWaiting}
	provider := &fakeProvider{
		getUploadFns: []func() (*streaming.Upload, error){
			uploadAnswer(waiting),
			uploadError(streaming.ErrNotFound),
		},
	}
	reconciler := NewReconciler(repo, newPoller(provider))

	var got *entities.ContentRecord
	var err error
	for i := 0; i < 2; i++ {
		got, err = reconciler.AttemptReconcile(context.Background(), record.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, constant.LifecycleStateFailed, got.LifecycleState)
	assert.Equal(t, constant.FailureKindHandleExpired, got.FailureKind)
	assert.Empty(t, got.AssetHandle)
}
