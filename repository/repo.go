package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"reel-ingest/entities"
)

type ContentRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	GetDB() *gorm.DB
	CreateContentRecord(ctx context.Context, record *entities.ContentRecord) error
	FindContentRecordById(ctx context.Context, id uuid.UUID) (*entities.ContentRecord, error)
	CompareAndSetContentRecord(ctx context.Context, id uuid.UUID, expectedVersion int64, updates map[string]interface{}) (bool, error)
	DeleteContentRecord(ctx context.Context, id uuid.UUID) error
	ListCommentsByContentId(ctx context.Context, contentId uuid.UUID) ([]*entities.Comment, error)
	ListNotificationsByContentId(ctx context.Context, contentId uuid.UUID) ([]*entities.Notification, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	DeleteNotification(ctx context.Context, id uuid.UUID) error
	AdjustOwnerVideoCount(ctx context.Context, ownerId uuid.UUID, delta int) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) ContentRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.GetDB().Transaction(func(tx *gorm.DB) error {
		err := callback(ctx)
		if err != nil {
			return err
		}
		return nil
	}, opts...)
}

func (r *repo) CreateContentRecord(ctx context.Context, record *entities.ContentRecord) error {
	return r.GetDB().Create(record).Error
}

func (r *repo) FindContentRecordById(ctx context.Context, id uuid.UUID) (*entities.ContentRecord, error) {
	record := &entities.ContentRecord{}
	err := r.GetDB().First(record, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return record, nil
}

// CompareAndSetContentRecord applies updates only if the stored version still
// matches expectedVersion, bumping the version in the same statement. Returns
// false when a concurrent writer got there first.
func (r *repo) CompareAndSetContentRecord(ctx context.Context, id uuid.UUID, expectedVersion int64, updates map[string]interface{}) (bool, error) {
	updates["version"] = expectedVersion + 1
	tx := r.GetDB().Model(&entities.ContentRecord{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *repo) DeleteContentRecord(ctx context.Context, id uuid.UUID) error {
	return r.GetDB().Delete(&entities.ContentRecord{}, "id = ?", id).Error
}

func (r *repo) ListCommentsByContentId(ctx context.Context, contentId uuid.UUID) ([]*entities.Comment, error) {
	var comments []*entities.Comment
	err := r.GetDB().Where("content_id = ?", contentId).Order("created_at ASC").Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *repo) ListNotificationsByContentId(ctx context.Context, contentId uuid.UUID) ([]*entities.Notification, error) {
	var notifications []*entities.Notification
	err := r.GetDB().Where("content_id = ?", contentId).Order("created_at ASC").Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// DeleteComment treats an already-deleted row as success so a re-run of a
// partially failed cascade stays idempotent.
func (r *repo) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return r.GetDB().Delete(&entities.Comment{}, "id = ?", id).Error
}

func (r *repo) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	return r.GetDB().Delete(&entities.Notification{}, "id = ?", id).Error
}

func (r *repo) AdjustOwnerVideoCount(ctx context.Context, ownerId uuid.UUID, delta int) error {
	return r.GetDB().Model(&entities.User{}).
		Where("id = ?", ownerId).
		UpdateColumn("video_count", gorm.Expr("GREATEST(video_count + ?, 0)", delta)).Error
}
