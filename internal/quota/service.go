package quota

import (
	"context"
	"errors"
	"time"

	dbutil "github.com/woodline-crm/woodquota/internal/db"
	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/store"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultLimit is the system-wide monthly limit used when neither a
// personal nor a role override exists.
const DefaultLimit = 5

// Status is the current quota standing of one user for the current month.
type Status struct {
	Used      int `json:"used"`      // Active claims this month.
	Limit     int `json:"limit"`     // Resolved monthly limit.
	Remaining int `json:"remaining"` // max(0, Limit-Used).
}

// HasQuota reports whether another take would be granted.
func (s Status) HasQuota() bool {
	return s.Remaining > 0
}

// Service is the claim engine and quota resolver. All mutation of claims
// and overrides goes through here.
type Service struct {
	db        *gorm.DB
	claims    *store.ClaimStore
	overrides *store.OverrideStore
	now       func() time.Time
}

// NewService constructs a Service on top of the shared connection.
func NewService(conn *gorm.DB) *Service {
	return &Service{
		db:        conn,
		claims:    store.NewClaimStore(conn),
		overrides: store.NewOverrideStore(conn),
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests and callers that must
// pin the month bucket.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Resolve computes the effective monthly limit for a user. Precedence is
// winner-take-all: personal override, then role override, then the system
// default.
func (s *Service) Resolve(ctx context.Context, userID uint64, role string) (int, error) {
	return s.resolveWith(ctx, s.overrides, userID, role)
}

func (s *Service) resolveWith(ctx context.Context, overrides *store.OverrideStore, userID uint64, role string) (int, error) {
	personal, errPersonal := overrides.GetPersonal(ctx, userID)
	if errPersonal == nil {
		return personal.MonthlyLimit, nil
	}
	if !errors.Is(errPersonal, gorm.ErrRecordNotFound) {
		return 0, errPersonal
	}

	roleOverride, errRole := overrides.GetByRole(ctx, role)
	if errRole == nil {
		return roleOverride.MonthlyLimit, nil
	}
	if !errors.Is(errRole, gorm.ErrRecordNotFound) {
		return 0, errRole
	}

	return DefaultLimit, nil
}

// GetStatus returns the live quota standing for the current month. Used is
// always recomputed by counting active claims.
func (s *Service) GetStatus(ctx context.Context, userID uint64, role string) (Status, error) {
	return s.statusWith(ctx, s.db, userID, role)
}

func (s *Service) statusWith(ctx context.Context, conn *gorm.DB, userID uint64, role string) (Status, error) {
	claims := store.NewClaimStore(conn)
	overrides := store.NewOverrideStore(conn)

	limit, errResolve := s.resolveWith(ctx, overrides, userID, role)
	if errResolve != nil {
		return Status{}, errResolve
	}
	used, errCount := claims.CountActive(ctx, userID, MonthOf(s.now()))
	if errCount != nil {
		return Status{}, errCount
	}

	remaining := limit - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return Status{Used: int(used), Limit: limit, Remaining: remaining}, nil
}

// Take grants one claim against siteID for the current month.
//
// The duplicate-claim guard runs first: holding two active claims for the
// same site in the same month is rejected before quota is even considered.
// The quota check-then-insert then runs inside a serializing transaction so
// two concurrent takes for the same user cannot both see remaining > 0 and
// jointly overshoot the limit.
func (s *Service) Take(ctx context.Context, userID uint64, role, siteID string) (*models.Claim, error) {
	month := MonthOf(s.now())

	if _, errDup := s.claims.FindActive(ctx, userID, siteID, month); errDup == nil {
		return nil, ErrDuplicateActive
	} else if !errors.Is(errDup, gorm.ErrRecordNotFound) {
		return nil, errDup
	}

	var claim *models.Claim
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errLock := s.lockUser(tx, userID); errLock != nil {
			return errLock
		}

		status, errStatus := s.statusWith(ctx, tx, userID, role)
		if errStatus != nil {
			return errStatus
		}
		if !status.HasQuota() {
			return ErrQuotaExhausted
		}

		created := &models.Claim{
			UserID:    userID,
			SiteID:    siteID,
			Month:     month,
			CreatedAt: s.now().UTC(),
		}
		if errCreate := store.NewClaimStore(tx).Create(ctx, created); errCreate != nil {
			return errCreate
		}
		claim = created
		return nil
	})
	if errTx != nil {
		if dbutil.IsLockContention(errTx) {
			log.WithError(errTx).Warnf("take contention for user %d", userID)
			return nil, ErrContention
		}
		return nil, errTx
	}
	return claim, nil
}

// lockUser serializes concurrent takes for one user. On SQLite the first
// write statement promotes the transaction to the single writer, which is
// the BEGIN IMMEDIATE pattern; on Postgres the FOR UPDATE row lock scopes
// the serialization to this user so other users proceed in parallel. Either
// way a missing user surfaces as an integrity violation before any claim
// row can reference it.
func (s *Service) lockUser(tx *gorm.DB, userID uint64) error {
	if dbutil.IsSQLite(tx) {
		res := tx.Exec("UPDATE users SET id = id WHERE id = ?", userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrIntegrity
		}
		return nil
	}

	var locked models.User
	errFind := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		First(&locked).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return ErrIntegrity
	}
	return errFind
}

// ReturnOwn cancels the caller's most recent active claim for siteID in the
// current month. Claims from earlier months are intentionally unreachable
// here: a claim belongs to the month it was created in.
func (s *Service) ReturnOwn(ctx context.Context, userID uint64, siteID string) (*models.Claim, error) {
	month := MonthOf(s.now())
	return s.cancelMatch(ctx, func(tx *store.ClaimStore) (*models.Claim, error) {
		return tx.FindActive(ctx, userID, siteID, month)
	})
}

// ReturnAdmin cancels the most recent active claim for siteID in the
// current month regardless of owner. When duplicate claims exist across
// users, most recent wins.
func (s *Service) ReturnAdmin(ctx context.Context, siteID string) (*models.Claim, error) {
	month := MonthOf(s.now())
	return s.cancelMatch(ctx, func(tx *store.ClaimStore) (*models.Claim, error) {
		return tx.FindActiveAnyUser(ctx, siteID, month)
	})
}

// cancelMatch runs one atomic find-then-cancel. Over-cancelling can only
// loosen the quota invariant, so takes' serializing lock is not needed
// here, but the pair still commits or rolls back as a unit.
func (s *Service) cancelMatch(ctx context.Context, find func(*store.ClaimStore) (*models.Claim, error)) (*models.Claim, error) {
	var cancelled *models.Claim
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claims := store.NewClaimStore(tx)
		claim, errFind := find(claims)
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return errFind
		}

		at := s.now().UTC()
		changed, errCancel := claims.Cancel(ctx, claim.ID, at)
		if errCancel != nil {
			return errCancel
		}
		if !changed {
			// Lost a race with another return for the same claim.
			return ErrNotFound
		}
		claim.Cancelled = true
		claim.CancelledAt = &at
		cancelled = claim
		return nil
	})
	if errTx != nil {
		if dbutil.IsLockContention(errTx) {
			return nil, ErrContention
		}
		return nil, errTx
	}
	return cancelled, nil
}

// History returns a page of the user's active claims, newest first, plus
// the total active count.
func (s *Service) History(ctx context.Context, userID uint64, offset, limit int) ([]models.Claim, int64, error) {
	total, errCount := s.claims.HistoryCount(ctx, userID)
	if errCount != nil {
		return nil, 0, errCount
	}
	claims, errFind := s.claims.History(ctx, userID, offset, limit)
	if errFind != nil {
		return nil, 0, errFind
	}
	return claims, total, nil
}

// SetRoleLimit creates or replaces the role-scoped override. The resolver
// accepts any non-negative limit; range policy lives at the API boundary.
func (s *Service) SetRoleLimit(ctx context.Context, role string, limit int) error {
	if !models.ValidRole(role) || limit < 0 {
		return ErrIntegrity
	}
	return s.overrides.SetRoleLimit(ctx, role, limit)
}

// SetPersonalLimit creates or replaces the user-scoped override.
func (s *Service) SetPersonalLimit(ctx context.Context, userID uint64, limit int) error {
	if limit < 0 {
		return ErrIntegrity
	}
	var exists int64
	if errCount := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Count(&exists).Error; errCount != nil {
		return errCount
	}
	if exists == 0 {
		return ErrIntegrity
	}
	return s.overrides.SetPersonalLimit(ctx, userID, limit)
}

// RemovePersonalLimit deletes the user-scoped override, reverting the user
// to role or default resolution. The second of two consecutive calls
// returns false.
func (s *Service) RemovePersonalLimit(ctx context.Context, userID uint64) (bool, error) {
	return s.overrides.RemovePersonal(ctx, userID)
}
