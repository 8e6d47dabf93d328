package models

import (
	"time"

	"gorm.io/datatypes"
)

// Announcement is an outbox row for an administrator broadcast. Delivery is
// handled by an external worker which writes its result back into Delivery.
type Announcement struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AuthorID     uint64  `gorm:"not null;index"` // Administrator who queued the message.
	TargetUserID *uint64 `gorm:"index"`          // Single recipient, nil for everyone.

	Body string `gorm:"type:text;not null"` // Message text.

	Delivery datatypes.JSON `gorm:"type:jsonb"` // Delivery report written by the deliverer.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Enqueue timestamp.
}

// TableName overrides the default table name.
func (Announcement) TableName() string {
	return "announcements"
}
