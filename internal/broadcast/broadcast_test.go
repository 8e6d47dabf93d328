package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	dbutil "github.com/woodline-crm/woodquota/internal/db"
	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/settings"
	"github.com/woodline-crm/woodquota/internal/store"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:broadcast_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbutil.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open database: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewService(conn), conn
}

func TestEnqueueValidatesBody(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, errEnqueue := svc.Enqueue(ctx, 1, nil, "   "); !errors.Is(errEnqueue, ErrEmptyBody) {
		t.Fatalf("expected empty body error, got %v", errEnqueue)
	}

	long := strings.Repeat("ж", settings.DefaultAnnouncementMaxLength+1)
	if _, errEnqueue := svc.Enqueue(ctx, 1, nil, long); !errors.Is(errEnqueue, ErrBodyTooLong) {
		t.Fatalf("expected body length error, got %v", errEnqueue)
	}
}

func TestEnqueueValidatesTarget(t *testing.T) {
	svc, conn := setupService(t)
	ctx := context.Background()

	missing := uint64(404)
	if _, errEnqueue := svc.Enqueue(ctx, 1, &missing, "привет"); !errors.Is(errEnqueue, ErrUnknownTarget) {
		t.Fatalf("expected unknown target error, got %v", errEnqueue)
	}

	users := store.NewUserStore(conn)
	if errCreate := users.Create(ctx, &models.User{ID: 42, FullName: "Петров", Role: models.RoleManager}); errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	target := uint64(42)
	row, errEnqueue := svc.Enqueue(ctx, 1, &target, "  Собрание в 10:00  ")
	if errEnqueue != nil {
		t.Fatalf("enqueue: %v", errEnqueue)
	}
	if row.ID == 0 {
		t.Fatal("expected a persisted announcement id")
	}
	if row.Body != "Собрание в 10:00" {
		t.Fatalf("expected trimmed body, got %q", row.Body)
	}
	if row.TargetUserID == nil || *row.TargetUserID != 42 {
		t.Fatalf("expected target 42, got %v", row.TargetUserID)
	}
}

func TestListAndRecordDelivery(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	var last *models.Announcement
	for i := 0; i < 3; i++ {
		row, errEnqueue := svc.Enqueue(ctx, 1, nil, fmt.Sprintf("сообщение %d", i))
		if errEnqueue != nil {
			t.Fatalf("enqueue %d: %v", i, errEnqueue)
		}
		last = row
	}

	rows, total, errList := svc.List(ctx, 0, 2)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("expected total 3 and page of 2, got %d/%d", total, len(rows))
	}
	if rows[0].ID != last.ID {
		t.Fatalf("expected newest first, got id %d", rows[0].ID)
	}

	report := datatypes.JSON(`{"delivered":3,"failed":0}`)
	updated, errRecord := svc.RecordDelivery(ctx, last.ID, report)
	if errRecord != nil {
		t.Fatalf("record delivery: %v", errRecord)
	}
	if !updated {
		t.Fatal("expected delivery report to be stored")
	}
	updated, errRecord = svc.RecordDelivery(ctx, 9999, report)
	if errRecord != nil {
		t.Fatalf("record delivery for missing row: %v", errRecord)
	}
	if updated {
		t.Fatal("expected no update for missing announcement")
	}
}
