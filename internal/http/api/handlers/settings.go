package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/woodline-crm/woodquota/internal/settings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// knownSettingKeys lists the keys an administrator may tune.
var knownSettingKeys = map[string]struct{}{
	settings.SiteNameKey:              {},
	settings.HistoryPageSizeKey:       {},
	settings.ReturnsPageSizeKey:       {},
	settings.AnnouncementMaxLengthKey: {},
}

// SettingsHandler serves the runtime-tunable settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a settings handler.
func NewSettingsHandler(conn *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: conn}
}

// Get returns the effective values after defaults.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"site_name":               settings.SiteName(),
		"history_page_size":       settings.HistoryPageSize(),
		"returns_page_size":       settings.ReturnsPageSize(),
		"announcement_max_length": settings.AnnouncementMaxLength(),
		"updated_at":              settings.DBConfigUpdatedAt(),
	})
}

// updateSettingRequest captures one setting write.
type updateSettingRequest struct {
	Key   string          `json:"key"`   // One of the known setting keys.
	Value json.RawMessage `json:"value"` // JSON-encoded value.
}

// Update writes one setting and refreshes the in-memory snapshot.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body updateSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if _, ok := knownSettingKeys[body.Key]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting key"})
		return
	}
	if len(body.Value) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	if errUpsert := settings.Upsert(c.Request.Context(), h.db, body.Key, body.Value); errUpsert != nil {
		respondError(c, errUpsert)
		return
	}

	log.WithField("key", body.Key).Info("setting updated")
	c.JSON(http.StatusOK, gin.H{"key": body.Key})
}
