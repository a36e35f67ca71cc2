package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"reel-ingest/constant"
	"reel-ingest/entities"
	"reel-ingest/pkg/streaming"
)

// fakeProvider scripts provider answers per call so tests can walk a record
// through the multi-stage processing window deterministically.
type fakeProvider struct {
	createUploadFn func() (*streaming.Upload, error)
	getUploadFns   []func() (*streaming.Upload, error)
	getAssetFns    []func() (*streaming.Asset, error)
	deleteAssetErr error

	getUploadCalls int
	getAssetCalls  int
	deletedAssets  []string
	uploadedBytes  []byte
}

func (f *fakeProvider) CreateUpload(ctx context.Context) (*streaming.Upload, error) {
	if f.createUploadFn == nil {
		return &streaming.Upload{ID: "upload-1", Status: streaming.UploadStatusWaiting, URL: "https://ingest.example/put/upload-1"}, nil
	}
	return f.createUploadFn()
}

func (f *fakeProvider) GetUpload(ctx context.Context, uploadHandle string) (*streaming.Upload, error) {
	idx := f.getUploadCalls
	f.getUploadCalls++
	if idx >= len(f.getUploadFns) {
		idx = len(f.getUploadFns) - 1
	}
	if idx < 0 {
		return nil, streaming.ErrNotFound
	}
	return f.getUploadFns[idx]()
}

func (f *fakeProvider) GetAsset(ctx context.Context, assetHandle string) (*streaming.Asset, error) {
	idx := f.getAssetCalls
	f.getAssetCalls++
	if idx >= len(f.getAssetFns) {
		idx = len(f.getAssetFns) - 1
	}
	if idx < 0 {
		return nil, streaming.ErrNotFound
	}
	return f.getAssetFns[idx]()
}

func (f *fakeProvider) DeleteAsset(ctx context.Context, assetHandle string) error {
	if f.deleteAssetErr != nil {
		return f.deleteAssetErr
	}
	f.deletedAssets = append(f.deletedAssets, assetHandle)
	return nil
}

func (f *fakeProvider) UploadSource(ctx context.Context, uploadURL string, size int64, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.uploadedBytes = raw
	return nil
}

func uploadAnswer(u streaming.Upload) func() (*streaming.Upload, error) {
	return func() (*streaming.Upload, error) { return &u, nil }
}

func uploadError(err error) func() (*streaming.Upload, error) {
	return func() (*streaming.Upload, error) { return nil, err }
}

func assetAnswer(a streaming.Asset) func() (*streaming.Asset, error) {
	return func() (*streaming.Asset, error) { return &a, nil }
}

func assetError(err error) func() (*streaming.Asset, error) {
	return func() (*streaming.Asset, error) { return nil, err }
}

// fakeRepo is an in-memory ContentRepository with real version-guarded CAS
// semantics. Reads return snapshots so tests can model two reconcile
// attempts racing on the same record.
type fakeRepo struct {
	records       map[uuid.UUID]*entities.ContentRecord
	comments      map[uuid.UUID]*entities.Comment
	notifications map[uuid.UUID]*entities.Notification
	counters      map[uuid.UUID]int

	failDeleteRecord   bool
	failDeleteComments map[uuid.UUID]error
	failAdjustCounter  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records:            make(map[uuid.UUID]*entities.ContentRecord),
		comments:           make(map[uuid.UUID]*entities.Comment),
		notifications:      make(map[uuid.UUID]*entities.Notification),
		counters:           make(map[uuid.UUID]int),
		failDeleteComments: make(map[uuid.UUID]error),
	}
}

func (f *fakeRepo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return callback(ctx)
}

func (f *fakeRepo) GetDB() *gorm.DB {
	return nil
}

func (f *fakeRepo) CreateContentRecord(ctx context.Context, record *entities.ContentRecord) error {
	clone := *record
	f.records[record.ID] = &clone
	return nil
}

func (f *fakeRepo) FindContentRecordById(ctx context.Context, id uuid.UUID) (*entities.ContentRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (f *fakeRepo) CompareAndSetContentRecord(ctx context.Context, id uuid.UUID, expectedVersion int64, updates map[string]interface{}) (bool, error) {
	record, ok := f.records[id]
	if !ok || record.Version != expectedVersion {
		return false, nil
	}
	for column, value := range updates {
		switch column {
		case "asset_handle":
			record.AssetHandle = value.(string)
		case "stream_reference":
			record.StreamReference = value.(string)
		case "lifecycle_state":
			record.LifecycleState = value.(constant.LifecycleState)
		case "failure_kind":
			record.FailureKind = value.(constant.FailureKind)
		}
	}
	record.Version = expectedVersion + 1
	return true, nil
}

func (f *fakeRepo) DeleteContentRecord(ctx context.Context, id uuid.UUID) error {
	if f.failDeleteRecord {
		return errors.New("store unavailable")
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRepo) ListCommentsByContentId(ctx context.Context, contentId uuid.UUID) ([]*entities.Comment, error) {
	var out []*entities.Comment
	for _, comment := range f.comments {
		if comment.ContentID == contentId {
			out = append(out, comment)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListNotificationsByContentId(ctx context.Context, contentId uuid.UUID) ([]*entities.Notification, error) {
	var out []*entities.Notification
	for _, notification := range f.notifications {
		if notification.ContentID == contentId {
			out = append(out, notification)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteComment(ctx context.Context, id uuid.UUID) error {
	if err := f.failDeleteComments[id]; err != nil {
		return err
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeRepo) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	delete(f.notifications, id)
	return nil
}

func (f *fakeRepo) AdjustOwnerVideoCount(ctx context.Context, ownerId uuid.UUID, delta int) error {
	if f.failAdjustCounter {
		return errors.New("counter unavailable")
	}
	f.counters[ownerId] += delta
	return nil
}

type fakeStaging struct {
	objects   map[string][]byte
	removed   []string
	removeErr error
}

func newFakeStaging() *fakeStaging {
	return &fakeStaging{objects: make(map[string][]byte)}
}

func (f *fakeStaging) Fetch(ctx context.Context, object string) (io.ReadCloser, int64, error) {
	raw, ok := f.objects[object]
	if !ok {
		return nil, 0, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), int64(len(raw)), nil
}

func (f *fakeStaging) Remove(ctx context.Context, object string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, object)
	delete(f.objects, object)
	return nil
}

type fakePublisher struct {
	published  []string
	publishErr error
}

func (f *fakePublisher) PublishOrphanedAsset(ctx context.Context, recordId, assetHandle string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, assetHandle)
	return nil
}

func processingRecord(owner uuid.UUID) *entities.ContentRecord {
	return &entities.ContentRecord{
		ID:             uuid.New(),
		OwnerID:        owner,
		UploadHandle:   "upload-1",
		LifecycleState: constant.LifecycleStateProcessing,
	}
}
