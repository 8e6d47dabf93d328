package models

import "time"

// Claim is one grant of the consumable resource against a site/contract
// identifier. A claim belongs permanently to the month bucket computed at
// creation time; a return flips the cancelled flag and stamps CancelledAt,
// the row is never deleted except by cascading user deletion.
type Claim struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key, tie-break for equal timestamps.

	UserID uint64 `gorm:"not null;index:idx_claims_user_month,priority:1"` // Owning user.
	SiteID string `gorm:"type:varchar(100);not null;index"`                // Site/contract identifier.

	Month string `gorm:"type:varchar(7);not null;index:idx_claims_user_month,priority:2"` // Calendar bucket, YYYY-MM.

	Cancelled   bool       `gorm:"not null;default:false"` // True once returned.
	CancelledAt *time.Time // Return timestamp, nil while active.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Grant timestamp, UTC.
}

// TableName overrides the default table name.
func (Claim) TableName() string {
	return "claims"
}
