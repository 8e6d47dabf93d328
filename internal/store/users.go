package store

import (
	"context"

	"github.com/woodline-crm/woodquota/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore persists the employee directory.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore bound to conn, which may be a
// transaction handle.
func NewUserStore(conn *gorm.DB) *UserStore {
	return &UserStore{db: conn}
}

// Get returns the user with the given identity key.
func (s *UserStore) Get(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error; errFind != nil {
		return nil, errFind
	}
	return &user, nil
}

// List returns all users ordered by full name.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if errFind := s.db.WithContext(ctx).
		Order("full_name ASC").
		Find(&users).Error; errFind != nil {
		return nil, errFind
	}
	return users, nil
}

// Create inserts a new user row.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

// SetAdmin updates the administrator flag.
func (s *UserStore) SetAdmin(ctx context.Context, id uint64, isAdmin bool) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("is_admin", isAdmin).Error
}

// SetRole updates the employee role.
func (s *UserStore) SetRole(ctx context.Context, id uint64, role string) error {
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("role", role).Error
}

// Delete removes a user together with their claims and personal override.
// The association delete keeps referential integrity even when the storage
// engine has foreign keys disabled.
func (s *UserStore) Delete(ctx context.Context, id uint64) (bool, error) {
	res := s.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&models.User{ID: id})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
