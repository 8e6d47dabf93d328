// Package broadcast queues administrator announcements in a database outbox.
// Actual delivery (messenger, mail) is done by an external worker that reads
// the outbox and writes a delivery report back.
package broadcast

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/settings"
	"github.com/woodline-crm/woodquota/internal/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrEmptyBody reports an announcement with no visible text.
	ErrEmptyBody = errors.New("broadcast: empty body")
	// ErrBodyTooLong reports an announcement over the configured length cap.
	ErrBodyTooLong = errors.New("broadcast: body too long")
	// ErrUnknownTarget reports a recipient that is not in the directory.
	ErrUnknownTarget = errors.New("broadcast: unknown target user")
)

// Service validates and persists announcements.
type Service struct {
	db    *gorm.DB
	users *store.UserStore
}

// NewService constructs a broadcast Service.
func NewService(conn *gorm.DB) *Service {
	return &Service{db: conn, users: store.NewUserStore(conn)}
}

// Enqueue stores one announcement. target is nil for an all-hands message;
// otherwise the recipient must exist in the directory.
func (s *Service) Enqueue(ctx context.Context, authorID uint64, target *uint64, body string) (*models.Announcement, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > settings.AnnouncementMaxLength() {
		return nil, ErrBodyTooLong
	}
	if target != nil {
		if _, errGet := s.users.Get(ctx, *target); errGet != nil {
			if errors.Is(errGet, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownTarget
			}
			return nil, errGet
		}
	}

	row := &models.Announcement{
		AuthorID:     authorID,
		TargetUserID: target,
		Body:         body,
	}
	if errCreate := s.db.WithContext(ctx).Create(row).Error; errCreate != nil {
		return nil, errCreate
	}
	return row, nil
}

// List returns a page of announcements, newest first.
func (s *Service) List(ctx context.Context, offset, limit int) ([]models.Announcement, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.Announcement{})

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		return nil, 0, errCount
	}

	var rows []models.Announcement
	if errFind := base.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error; errFind != nil {
		return nil, 0, errFind
	}
	return rows, total, nil
}

// RecordDelivery writes the delivery report for one announcement. It reports
// false when the announcement does not exist.
func (s *Service) RecordDelivery(ctx context.Context, id uint64, report datatypes.JSON) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Announcement{}).
		Where("id = ?", id).
		Update("delivery", report)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
