package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/woodline-crm/woodquota/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefreshDBConfigSnapshot reloads all settings from the database and updates the in-memory snapshot.
//
// This is required at process startup; otherwise DBConfigValue() will return empty values until
// an administrator updates settings via the API (which triggers refresh).
func RefreshDBConfigSnapshot(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rows []models.Setting
	if errFind := db.WithContext(ctx).
		Select("key", "value", "updated_at").
		Order("key ASC").
		Find(&rows).Error; errFind != nil {
		return errFind
	}

	values := make(map[string]json.RawMessage, len(rows))
	maxUpdatedAt := time.Time{}
	maxUpdatedKey := ""
	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if key == "" {
			continue
		}
		values[key] = row.Value
		rowUpdatedAt := row.UpdatedAt.UTC()
		if rowUpdatedAt.After(maxUpdatedAt) || (rowUpdatedAt.Equal(maxUpdatedAt) && key > maxUpdatedKey) {
			maxUpdatedAt = rowUpdatedAt
			maxUpdatedKey = key
		}
	}

	StoreDBConfig(maxUpdatedAt, values)
	return nil
}

// Upsert writes one setting row and refreshes the snapshot so readers see
// the new value immediately. value must already be valid JSON.
func Upsert(ctx context.Context, db *gorm.DB, key string, value json.RawMessage) error {
	if db == nil {
		return errors.New("settings: nil db")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("settings: empty key")
	}
	if !json.Valid(value) {
		return errors.New("settings: value is not valid JSON")
	}

	row := models.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	if errSave := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error; errSave != nil {
		return errSave
	}
	return RefreshDBConfigSnapshot(ctx, db)
}
