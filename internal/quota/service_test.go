package quota

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	dbutil "github.com/woodline-crm/woodquota/internal/db"
	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/store"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:quota_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	conn, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func setupService(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	conn := setupDB(t)
	svc := NewService(conn).WithClock(func() time.Time { return fixedNow })
	return conn, svc
}

func createUser(t *testing.T, conn *gorm.DB, id uint64, role string) {
	t.Helper()
	user := models.User{ID: id, FullName: fmt.Sprintf("User %d", id), Phone: "+70000000000", Role: role}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user %d: %v", id, errCreate)
	}
}

func TestResolveDefaultWithoutOverrides(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleMeasurer)

	limit, errResolve := svc.Resolve(context.Background(), 1, models.RoleMeasurer)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if limit != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, limit)
	}
}

func TestResolvePersonalWinsOverRoleRegardlessOfOrder(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleMeasurer)
	ctx := context.Background()

	if errSet := svc.SetRoleLimit(ctx, models.RoleMeasurer, 5); errSet != nil {
		t.Fatalf("set role limit: %v", errSet)
	}
	if errSet := svc.SetPersonalLimit(ctx, 1, 2); errSet != nil {
		t.Fatalf("set personal limit: %v", errSet)
	}

	limit, errResolve := svc.Resolve(ctx, 1, models.RoleMeasurer)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if limit != 2 {
		t.Fatalf("expected personal limit 2, got %d", limit)
	}

	// Replacing the role limit afterwards must not shadow the personal one.
	if errSet := svc.SetRoleLimit(ctx, models.RoleMeasurer, 10); errSet != nil {
		t.Fatalf("replace role limit: %v", errSet)
	}
	limit, errResolve = svc.Resolve(ctx, 1, models.RoleMeasurer)
	if errResolve != nil {
		t.Fatalf("resolve after role change: %v", errResolve)
	}
	if limit != 2 {
		t.Fatalf("personal override lost, got %d", limit)
	}
}

func TestRemovePersonalLimitIsIdempotent(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleManager)
	ctx := context.Background()

	if errSet := svc.SetPersonalLimit(ctx, 1, 3); errSet != nil {
		t.Fatalf("set personal limit: %v", errSet)
	}

	removed, errRemove := svc.RemovePersonalLimit(ctx, 1)
	if errRemove != nil {
		t.Fatalf("first remove: %v", errRemove)
	}
	if !removed {
		t.Fatalf("expected first remove to report true")
	}

	removed, errRemove = svc.RemovePersonalLimit(ctx, 1)
	if errRemove != nil {
		t.Fatalf("second remove: %v", errRemove)
	}
	if removed {
		t.Fatalf("expected second remove to report false")
	}

	limit, errResolve := svc.Resolve(ctx, 1, models.RoleManager)
	if errResolve != nil {
		t.Fatalf("resolve: %v", errResolve)
	}
	if limit != DefaultLimit {
		t.Fatalf("expected fallback to default %d, got %d", DefaultLimit, limit)
	}
}

func TestTakeScenarioWithStatusAndDuplicateAndReturn(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleMeasurer)
	ctx := context.Background()

	claim, errTake := svc.Take(ctx, 1, models.RoleMeasurer, "A-100")
	if errTake != nil {
		t.Fatalf("take: %v", errTake)
	}
	if claim.Month != "2026-08" {
		t.Fatalf("expected month bucket 2026-08, got %q", claim.Month)
	}

	status, errStatus := svc.GetStatus(ctx, 1, models.RoleMeasurer)
	if errStatus != nil {
		t.Fatalf("status: %v", errStatus)
	}
	if status.Used != 1 || status.Limit != 5 || status.Remaining != 4 {
		t.Fatalf("unexpected status after take: %+v", status)
	}

	if _, errDup := svc.Take(ctx, 1, models.RoleMeasurer, "A-100"); !errors.Is(errDup, ErrDuplicateActive) {
		t.Fatalf("expected ErrDuplicateActive, got %v", errDup)
	}

	returned, errReturn := svc.ReturnOwn(ctx, 1, "A-100")
	if errReturn != nil {
		t.Fatalf("return own: %v", errReturn)
	}
	if !returned.Cancelled || returned.CancelledAt == nil {
		t.Fatalf("expected cancelled claim with timestamp, got %+v", returned)
	}

	status, errStatus = svc.GetStatus(ctx, 1, models.RoleMeasurer)
	if errStatus != nil {
		t.Fatalf("status after return: %v", errStatus)
	}
	if status.Used != 0 || status.Remaining != 5 {
		t.Fatalf("round trip should restore status, got %+v", status)
	}

	// The site is claimable again after the return.
	if _, errRetake := svc.Take(ctx, 1, models.RoleMeasurer, "A-100"); errRetake != nil {
		t.Fatalf("retake after return: %v", errRetake)
	}
}

func TestTakeWithZeroLimitNeverWritesARow(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleBrigade)
	ctx := context.Background()

	if errSet := svc.SetPersonalLimit(ctx, 1, 0); errSet != nil {
		t.Fatalf("set personal limit: %v", errSet)
	}

	for i := 0; i < 3; i++ {
		if _, errTake := svc.Take(ctx, 1, models.RoleBrigade, fmt.Sprintf("B-%d", i)); !errors.Is(errTake, ErrQuotaExhausted) {
			t.Fatalf("expected ErrQuotaExhausted, got %v", errTake)
		}
	}

	var count int64
	if errCount := conn.Model(&models.Claim{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count claims: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected no claim rows, got %d", count)
	}
}

func TestTakeForUnknownUserIsIntegrityViolation(t *testing.T) {
	_, svc := setupService(t)

	if _, errTake := svc.Take(context.Background(), 999, models.RoleMeasurer, "A-1"); !errors.Is(errTake, ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity, got %v", errTake)
	}
}

func TestReturnOwnIsStrictlyMonthScoped(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleMeasurer)
	ctx := context.Background()

	lastMonth := models.Claim{
		UserID:    1,
		SiteID:    "OLD-7",
		Month:     "2026-07",
		CreatedAt: fixedNow.AddDate(0, -1, 0),
	}
	if errCreate := conn.Create(&lastMonth).Error; errCreate != nil {
		t.Fatalf("seed last month claim: %v", errCreate)
	}

	if _, errReturn := svc.ReturnOwn(ctx, 1, "OLD-7"); !errors.Is(errReturn, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for prior month claim, got %v", errReturn)
	}
}

func TestReturnOwnCannotTouchAnotherUsersClaim(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleMeasurer)
	createUser(t, conn, 2, models.RoleMeasurer)
	ctx := context.Background()

	if _, errTake := svc.Take(ctx, 1, models.RoleMeasurer, "A-5"); errTake != nil {
		t.Fatalf("take: %v", errTake)
	}

	if _, errReturn := svc.ReturnOwn(ctx, 2, "A-5"); !errors.Is(errReturn, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign claim, got %v", errReturn)
	}
}

func TestReturnAdminMatchesMostRecentAcrossUsers(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleMeasurer)
	createUser(t, conn, 2, models.RoleManager)
	ctx := context.Background()

	older := models.Claim{UserID: 1, SiteID: "S-1", Month: "2026-08", CreatedAt: fixedNow.Add(-2 * time.Hour)}
	newer := models.Claim{UserID: 2, SiteID: "S-1", Month: "2026-08", CreatedAt: fixedNow.Add(-1 * time.Hour)}
	for _, c := range []*models.Claim{&older, &newer} {
		if errCreate := conn.Create(c).Error; errCreate != nil {
			t.Fatalf("seed claim: %v", errCreate)
		}
	}

	returned, errReturn := svc.ReturnAdmin(ctx, "S-1")
	if errReturn != nil {
		t.Fatalf("return admin: %v", errReturn)
	}
	if returned.UserID != 2 {
		t.Fatalf("expected most recent claim (user 2) returned, got user %d", returned.UserID)
	}

	// The older duplicate is matched by the next call.
	returned, errReturn = svc.ReturnAdmin(ctx, "S-1")
	if errReturn != nil {
		t.Fatalf("second return admin: %v", errReturn)
	}
	if returned.UserID != 1 {
		t.Fatalf("expected older claim (user 1) returned, got user %d", returned.UserID)
	}

	if _, errReturn = svc.ReturnAdmin(ctx, "S-1"); !errors.Is(errReturn, ErrNotFound) {
		t.Fatalf("expected ErrNotFound once all claims returned, got %v", errReturn)
	}
}

func TestHistoryCountsOnlyActiveClaims(t *testing.T) {
	conn, svc := setupService(t)
	createUser(t, conn, 1, models.RoleMeasurer)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, errTake := svc.Take(ctx, 1, models.RoleMeasurer, fmt.Sprintf("H-%d", i)); errTake != nil {
			t.Fatalf("take %d: %v", i, errTake)
		}
	}
	if _, errReturn := svc.ReturnOwn(ctx, 1, "H-1"); errReturn != nil {
		t.Fatalf("return: %v", errReturn)
	}

	claims, total, errHistory := svc.History(ctx, 1, 0, 10)
	if errHistory != nil {
		t.Fatalf("history: %v", errHistory)
	}
	if total != 2 || len(claims) != 2 {
		t.Fatalf("expected 2 active claims, got total=%d len=%d", total, len(claims))
	}
	for _, c := range claims {
		if c.SiteID == "H-1" {
			t.Fatalf("cancelled claim leaked into history")
		}
	}
}

func TestConcurrentTakesNeverOvershootLimit(t *testing.T) {
	const (
		workers = 8
		limit   = 3
	)

	conn, errOpen := dbutil.Open(filepath.Join(t.TempDir(), "quota.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	createUser(t, conn, 1, models.RoleMeasurer)

	svc := NewService(conn).WithClock(func() time.Time { return fixedNow })
	if errSet := svc.SetPersonalLimit(context.Background(), 1, limit); errSet != nil {
		t.Fatalf("set personal limit: %v", errSet)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exhausted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			site := fmt.Sprintf("C-%d", worker)
			for {
				_, errTake := svc.Take(context.Background(), 1, models.RoleMeasurer, site)
				if errors.Is(errTake, ErrContention) {
					// Retry from scratch, as the caller contract requires.
					time.Sleep(10 * time.Millisecond)
					continue
				}
				mu.Lock()
				switch {
				case errTake == nil:
					succeeded++
				case errors.Is(errTake, ErrQuotaExhausted):
					exhausted++
				default:
					mu.Unlock()
					t.Errorf("worker %d: unexpected error: %v", worker, errTake)
					return
				}
				mu.Unlock()
				return
			}
		}(i)
	}
	wg.Wait()

	if succeeded != limit || exhausted != workers-limit {
		t.Fatalf("expected %d grants and %d denials, got %d/%d", limit, workers-limit, succeeded, exhausted)
	}

	used, errCount := store.NewClaimStore(conn).CountActive(context.Background(), 1, MonthOf(fixedNow))
	if errCount != nil {
		t.Fatalf("count active: %v", errCount)
	}
	if used != limit {
		t.Fatalf("ledger overshoot: %d active claims for limit %d", used, limit)
	}
}
