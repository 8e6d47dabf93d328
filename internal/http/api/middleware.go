package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/woodline-crm/woodquota/internal/config"
	"github.com/woodline-crm/woodquota/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// callerIDHeader carries the already-authenticated caller identity. The
// surrounding deployment terminates authentication; this layer only does
// authorization.
const callerIDHeader = "X-User-ID"

// callerID extracts the caller identity from the request.
func callerID(c *gin.Context) (uint64, bool) {
	raw := strings.TrimSpace(c.GetHeader(callerIDHeader))
	if raw == "" {
		return 0, false
	}
	id, errParse := strconv.ParseUint(raw, 10, 64)
	if errParse != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// adminMiddleware admits callers whose user record carries the admin flag
// or whose id appears in the configured admin list.
func adminMiddleware(db *gorm.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := callerID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity missing"})
			return
		}
		c.Set("callerID", id)

		if cfg.IsConfiguredAdmin(id) {
			c.Next()
			return
		}

		var user models.User
		errFind := db.WithContext(c.Request.Context()).
			Select("id", "is_admin").
			First(&user, id).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}
