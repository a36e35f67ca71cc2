package entities

import (
	"time"

	"github.com/google/uuid"

	"reel-ingest/constant"
)

// ContentRecord is one user-submitted video (reel or video post). It is
// created in PROCESSING with only the transient upload handle populated and
// is mutated exclusively through the reconciler's compare-and-set path.
type ContentRecord struct {
	ID              uuid.UUID               `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID         uuid.UUID               `json:"owner_id" gorm:"type:uuid;not null;index:idx_content_records_owner_id"`
	UploadHandle    string                  `json:"upload_handle" gorm:"type:varchar(255);not null"`
	AssetHandle     string                  `json:"asset_handle" gorm:"type:varchar(255)"`
	StreamReference string                  `json:"stream_reference" gorm:"type:varchar(500)"`
	LifecycleState  constant.LifecycleState `json:"lifecycle_state" gorm:"type:varchar(20);not null;index:idx_content_records_state"`
	FailureKind     constant.FailureKind    `json:"failure_kind" gorm:"type:varchar(30)"`
	SourceObject    string                  `json:"source_object" gorm:"type:varchar(500)"`
	Version         int64                   `json:"version" gorm:"not null;default:0"`
	CreatedAt       time.Time               `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time               `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (ContentRecord) TableName() string {
	return "content_records"
}

// ProcessingFor returns how long the record has been waiting on the provider.
func (r *ContentRecord) ProcessingFor(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}
