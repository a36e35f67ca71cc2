package entities

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ContentID   uuid.UUID `json:"content_id" gorm:"type:uuid;not null;index:idx_notifications_content_id"`
	RecipientID uuid.UUID `json:"recipient_id" gorm:"type:uuid;not null"`
	Kind        string    `json:"kind" gorm:"type:varchar(50);not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Notification) TableName() string {
	return "notifications"
}
