package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/woodline-crm/woodquota/internal/quota"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// siteIDRe bounds the contract identifier accepted at the API boundary.
var siteIDRe = regexp.MustCompile(`^[\w\-/\.]{1,100}$`)

// maxLimit bounds admin-tunable quota limits.
const maxLimit = 1000

// respondError maps domain errors onto HTTP statuses with stable codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, quota.ErrQuotaExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": "quota exhausted", "code": "quota_exhausted"})
	case errors.Is(err, quota.ErrDuplicateActive):
		c.JSON(http.StatusConflict, gin.H{"error": "active claim for this site already exists", "code": "duplicate_active"})
	case errors.Is(err, quota.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "not_found"})
	case errors.Is(err, quota.ErrContention):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage busy, retry", "code": "contention"})
	case errors.Is(err, quota.ErrIntegrity):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "integrity violation", "code": "integrity"})
	default:
		log.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
	}
}

// validSiteID reports whether siteID may be stored.
func validSiteID(siteID string) bool {
	return siteIDRe.MatchString(siteID)
}

// parseIDParam reads a positive uint64 path parameter.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(c.Param(name), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

// parsePageQuery reads the 1-based page query parameter, defaulting to 1.
func parsePageQuery(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("page", "1")
	page, errParse := strconv.Atoi(raw)
	if errParse != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return 0, false
	}
	return page, true
}
