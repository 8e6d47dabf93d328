package models

// QuotaOverride supersedes the default monthly limit for a role or for a
// single user. A row must target at least one of the two; a user-scoped row
// wins over a role-scoped one during resolution.
type QuotaOverride struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Role   *string `gorm:"type:varchar(20);index;check:quota_has_target,role IS NOT NULL OR user_id IS NOT NULL"` // Role target, nil for user-scoped rows.
	UserID *uint64 `gorm:"uniqueIndex"`                                                                          // User target, nil for role-scoped rows.

	MonthlyLimit int `gorm:"not null"` // Active claims allowed per calendar month.
}

// TableName overrides the default table name.
func (QuotaOverride) TableName() string {
	return "quota_overrides"
}
