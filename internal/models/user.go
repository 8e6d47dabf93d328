package models

import "time"

// Employee roles recognized by the quota resolver.
const (
	// RoleMeasurer is the on-site measurer role.
	RoleMeasurer = "measurer"
	// RoleManager is the sales manager role.
	RoleManager = "manager"
	// RoleBrigade is the installation brigade role.
	RoleBrigade = "brigade"
)

// Roles lists every valid employee role.
var Roles = []string{RoleMeasurer, RoleManager, RoleBrigade}

// RoleLabels maps role keys to display labels.
var RoleLabels = map[string]string{
	RoleMeasurer: "Замерщик",
	RoleManager:  "Менеджер",
	RoleBrigade:  "Бригада",
}

// ValidRole reports whether role is one of the known employee roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an onboarded employee.
//
// The primary key is the stable external identity of the employee and is
// assigned by the caller, never autoincremented.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement:false"` // Stable external identity key.

	FullName string `gorm:"type:varchar(100);not null"` // Employee full name.
	Phone    string `gorm:"type:varchar(20);not null"`  // Contact phone.
	Role     string `gorm:"type:varchar(20);not null"`  // One of the Roles values.

	IsAdmin bool `gorm:"not null;default:false"` // Administrator flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Onboarding timestamp.

	Claims           []Claim         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Owned claims, cascade on delete.
	PersonalOverride []QuotaOverride `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Personal override, cascade on delete.
}

// TableName overrides the default table name.
func (User) TableName() string {
	return "users"
}
