package entities

import "github.com/google/uuid"

// User carries only the cached counters this service maintains.
type User struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	VideoCount int       `json:"video_count" gorm:"not null;default:0"`
}

func (User) TableName() string {
	return "users"
}
