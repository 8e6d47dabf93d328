package store

import (
	"context"
	"time"

	"github.com/woodline-crm/woodquota/internal/models"
	"gorm.io/gorm"
)

// ClaimStore persists the claim ledger. Claims are append-mostly: the only
// mutation is the one-shot cancellation performed by Cancel.
type ClaimStore struct {
	db *gorm.DB
}

// NewClaimStore constructs a ClaimStore bound to conn, which may be a
// transaction handle.
func NewClaimStore(conn *gorm.DB) *ClaimStore {
	return &ClaimStore{db: conn}
}

// CountActive returns the number of active claims for a user in a month.
// This is the live counter the quota invariant is checked against; it is
// deliberately recomputed instead of cached so it self-heals after returns.
func (s *ClaimStore) CountActive(ctx context.Context, userID uint64, month string) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("user_id = ? AND month = ? AND cancelled = ?", userID, month, false).
		Count(&count).Error; errCount != nil {
		return 0, errCount
	}
	return count, nil
}

// Create inserts a new claim row.
func (s *ClaimStore) Create(ctx context.Context, claim *models.Claim) error {
	return s.db.WithContext(ctx).Create(claim).Error
}

// FindActive returns the most recent active claim for (user, site, month).
// Ordering is creation time descending with row id as the deterministic
// tie-break.
func (s *ClaimStore) FindActive(ctx context.Context, userID uint64, siteID, month string) (*models.Claim, error) {
	var claim models.Claim
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND site_id = ? AND month = ? AND cancelled = ?", userID, siteID, month, false).
		Order("created_at DESC, id DESC").
		First(&claim).Error; errFind != nil {
		return nil, errFind
	}
	return &claim, nil
}

// FindActiveAnyUser returns the most recent active claim for (site, month)
// regardless of owner. Used by the administrator return path.
func (s *ClaimStore) FindActiveAnyUser(ctx context.Context, siteID, month string) (*models.Claim, error) {
	var claim models.Claim
	if errFind := s.db.WithContext(ctx).
		Where("site_id = ? AND month = ? AND cancelled = ?", siteID, month, false).
		Order("created_at DESC, id DESC").
		First(&claim).Error; errFind != nil {
		return nil, errFind
	}
	return &claim, nil
}

// Cancel marks a claim returned in a single atomic statement. The cancelled
// guard keeps the mutation one-shot; it reports whether a row changed.
func (s *ClaimStore) Cancel(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("id = ? AND cancelled = ?", id, false).
		Updates(map[string]any{
			"cancelled":    true,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// History returns a page of the user's active claims, newest first.
func (s *ClaimStore) History(ctx context.Context, userID uint64, offset, limit int) ([]models.Claim, error) {
	var claims []models.Claim
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND cancelled = ?", userID, false).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&claims).Error; errFind != nil {
		return nil, errFind
	}
	return claims, nil
}

// HistoryCount returns the total number of the user's active claims.
func (s *ClaimStore) HistoryCount(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	if errCount := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("user_id = ? AND cancelled = ?", userID, false).
		Count(&count).Error; errCount != nil {
		return 0, errCount
	}
	return count, nil
}

// MonthsWithActivity returns the distinct months holding active claims,
// newest first.
func (s *ClaimStore) MonthsWithActivity(ctx context.Context) ([]string, error) {
	var months []string
	if errFind := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("cancelled = ?", false).
		Distinct("month").
		Order("month DESC").
		Pluck("month", &months).Error; errFind != nil {
		return nil, errFind
	}
	return months, nil
}

// ByMonths returns all claims in the given months, optionally including
// cancelled ones, ordered newest month first and oldest claim first within
// a month.
func (s *ClaimStore) ByMonths(ctx context.Context, months []string, includeCancelled bool) ([]models.Claim, error) {
	if len(months) == 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Where("month IN ?", months)
	if !includeCancelled {
		query = query.Where("cancelled = ?", false)
	}
	var claims []models.Claim
	if errFind := query.
		Order("month DESC, created_at ASC, id ASC").
		Find(&claims).Error; errFind != nil {
		return nil, errFind
	}
	return claims, nil
}

// CancelledByMonths returns a page of cancelled claims in the given months
// together with the total count, most recently returned first.
func (s *ClaimStore) CancelledByMonths(ctx context.Context, months []string, offset, limit int) ([]models.Claim, int64, error) {
	if len(months) == 0 {
		return nil, 0, nil
	}
	base := s.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("month IN ? AND cancelled = ?", months, true)

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		return nil, 0, errCount
	}

	var claims []models.Claim
	if errFind := base.
		Order("cancelled_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&claims).Error; errFind != nil {
		return nil, 0, errFind
	}
	return claims, total, nil
}
