package store

import (
	"context"
	"errors"

	"github.com/woodline-crm/woodquota/internal/models"
	"gorm.io/gorm"
)

// OverrideStore persists role-scoped and user-scoped quota overrides.
type OverrideStore struct {
	db *gorm.DB
}

// NewOverrideStore constructs an OverrideStore bound to conn.
func NewOverrideStore(conn *gorm.DB) *OverrideStore {
	return &OverrideStore{db: conn}
}

// GetPersonal returns the user-scoped override for userID, if present.
func (s *OverrideStore) GetPersonal(ctx context.Context, userID uint64) (*models.QuotaOverride, error) {
	var override models.QuotaOverride
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&override).Error; errFind != nil {
		return nil, errFind
	}
	return &override, nil
}

// GetByRole returns the role-scoped override for role, if present.
func (s *OverrideStore) GetByRole(ctx context.Context, role string) (*models.QuotaOverride, error) {
	var override models.QuotaOverride
	if errFind := s.db.WithContext(ctx).
		Where("role = ? AND user_id IS NULL", role).
		First(&override).Error; errFind != nil {
		return nil, errFind
	}
	return &override, nil
}

// SetRoleLimit creates or replaces the single role-scoped override row.
// Uniqueness per role is kept by this lookup-before-write, not by the
// schema.
func (s *OverrideStore) SetRoleLimit(ctx context.Context, role string, limit int) error {
	_, errGet := s.GetByRole(ctx, role)
	if errGet == nil {
		return s.db.WithContext(ctx).
			Model(&models.QuotaOverride{}).
			Where("role = ? AND user_id IS NULL", role).
			Update("monthly_limit", limit).Error
	}
	if !errors.Is(errGet, gorm.ErrRecordNotFound) {
		return errGet
	}
	return s.db.WithContext(ctx).
		Create(&models.QuotaOverride{Role: &role, MonthlyLimit: limit}).Error
}

// SetPersonalLimit creates or replaces the single user-scoped override row.
func (s *OverrideStore) SetPersonalLimit(ctx context.Context, userID uint64, limit int) error {
	_, errGet := s.GetPersonal(ctx, userID)
	if errGet == nil {
		return s.db.WithContext(ctx).
			Model(&models.QuotaOverride{}).
			Where("user_id = ?", userID).
			Update("monthly_limit", limit).Error
	}
	if !errors.Is(errGet, gorm.ErrRecordNotFound) {
		return errGet
	}
	return s.db.WithContext(ctx).
		Create(&models.QuotaOverride{UserID: &userID, MonthlyLimit: limit}).Error
}

// RemovePersonal deletes the user-scoped override. It reports false when no
// override existed, which makes repeated calls safe.
func (s *OverrideStore) RemovePersonal(ctx context.Context, userID uint64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.QuotaOverride{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SeedDefaults inserts a role-scoped override at the system default for
// every role that has none yet. Run once at startup.
func (s *OverrideStore) SeedDefaults(ctx context.Context, defaultLimit int) error {
	for _, role := range models.Roles {
		_, errGet := s.GetByRole(ctx, role)
		if errGet == nil {
			continue
		}
		if !errors.Is(errGet, gorm.ErrRecordNotFound) {
			return errGet
		}
		roleCopy := role
		if errCreate := s.db.WithContext(ctx).
			Create(&models.QuotaOverride{Role: &roleCopy, MonthlyLimit: defaultLimit}).Error; errCreate != nil {
			return errCreate
		}
	}
	return nil
}
