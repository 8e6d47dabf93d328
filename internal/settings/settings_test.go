package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	dbutil "github.com/woodline-crm/woodquota/internal/db"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:settings_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, errOpen := dbutil.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open database: %v", errOpen)
	}
	if errMigrate := dbutil.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func resetSnapshot(t *testing.T) {
	t.Helper()
	StoreDBConfig(time.Time{}, nil)
	t.Cleanup(func() { StoreDBConfig(time.Time{}, nil) })
}

func TestTypedAccessorsFallBackToDefaults(t *testing.T) {
	resetSnapshot(t)

	if got := SiteName(); got != DefaultSiteName {
		t.Fatalf("expected default site name, got %q", got)
	}
	if got := HistoryPageSize(); got != DefaultHistoryPageSize {
		t.Fatalf("expected default history page size, got %d", got)
	}

	StoreDBConfig(time.Now(), map[string]json.RawMessage{
		SiteNameKey:        json.RawMessage(`"  "`),
		HistoryPageSizeKey: json.RawMessage(`-1`),
		ReturnsPageSizeKey: json.RawMessage(`"banana"`),
	})
	if got := SiteName(); got != DefaultSiteName {
		t.Fatalf("expected blank name to fall back, got %q", got)
	}
	if got := HistoryPageSize(); got != DefaultHistoryPageSize {
		t.Fatalf("expected non-positive size to fall back, got %d", got)
	}
	if got := ReturnsPageSize(); got != DefaultReturnsPageSize {
		t.Fatalf("expected malformed size to fall back, got %d", got)
	}
}

func TestUpsertRefreshesSnapshot(t *testing.T) {
	resetSnapshot(t)
	conn := setupDB(t)
	ctx := context.Background()

	if errUpsert := Upsert(ctx, conn, SiteNameKey, json.RawMessage(`"Woodline North"`)); errUpsert != nil {
		t.Fatalf("upsert setting: %v", errUpsert)
	}
	if got := SiteName(); got != "Woodline North" {
		t.Fatalf("expected snapshot to pick up upsert, got %q", got)
	}

	if errUpsert := Upsert(ctx, conn, SiteNameKey, json.RawMessage(`"Woodline South"`)); errUpsert != nil {
		t.Fatalf("replace setting: %v", errUpsert)
	}
	if got := SiteName(); got != "Woodline South" {
		t.Fatalf("expected replacement value, got %q", got)
	}

	if errUpsert := Upsert(ctx, conn, HistoryPageSizeKey, json.RawMessage(`{`)); errUpsert == nil {
		t.Fatal("expected invalid JSON to be rejected")
	}
}
