package handlers

import (
	"net/http"
	"strings"

	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/quota"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// LimitHandler serves the admin quota tuning surface and the admin return.
type LimitHandler struct {
	svc *quota.Service
}

// NewLimitHandler constructs a limit handler.
func NewLimitHandler(svc *quota.Service) *LimitHandler {
	return &LimitHandler{svc: svc}
}

// roleLimitRequest captures a role-scoped limit change.
type roleLimitRequest struct {
	Role  string `json:"role"`  // Role key.
	Limit *int   `json:"limit"` // New monthly limit.
}

// personalLimitRequest captures a user-scoped limit change.
type personalLimitRequest struct {
	UserID uint64 `json:"user_id"` // Employee identity key.
	Limit  *int   `json:"limit"`   // New monthly limit.
}

// adminReturnRequest captures a forced return by site.
type adminReturnRequest struct {
	SiteID string `json:"site_id"` // Contract or site identifier.
}

// validLimit reports whether a requested limit is inside the admin bound.
func validLimit(limit *int) bool {
	return limit != nil && *limit >= 0 && *limit <= maxLimit
}

// SetRoleLimit replaces the monthly limit for every holder of a role.
func (h *LimitHandler) SetRoleLimit(c *gin.Context) {
	var body roleLimitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !models.ValidRole(body.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be one of: " + strings.Join(models.Roles, ", ")})
		return
	}
	if !validLimit(body.Limit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 0 and 1000"})
		return
	}

	if errSet := h.svc.SetRoleLimit(c.Request.Context(), body.Role, *body.Limit); errSet != nil {
		respondError(c, errSet)
		return
	}

	log.WithFields(log.Fields{"role": body.Role, "limit": *body.Limit}).Info("role limit updated")
	c.JSON(http.StatusOK, gin.H{"role": body.Role, "limit": *body.Limit})
}

// SetPersonalLimit replaces the monthly limit for one employee.
func (h *LimitHandler) SetPersonalLimit(c *gin.Context) {
	var body personalLimitRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	if !validLimit(body.Limit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 0 and 1000"})
		return
	}

	if errSet := h.svc.SetPersonalLimit(c.Request.Context(), body.UserID, *body.Limit); errSet != nil {
		respondError(c, errSet)
		return
	}

	log.WithFields(log.Fields{"user_id": body.UserID, "limit": *body.Limit}).Info("personal limit updated")
	c.JSON(http.StatusOK, gin.H{"user_id": body.UserID, "limit": *body.Limit})
}

// RemovePersonalLimit drops an employee's personal limit so the role limit
// applies again. Removing a limit that does not exist is not an error.
func (h *LimitHandler) RemovePersonalLimit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	removed, errRemove := h.svc.RemovePersonalLimit(c.Request.Context(), id)
	if errRemove != nil {
		respondError(c, errRemove)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Return cancels the most recent active claim for a site in the current
// month regardless of owner.
func (h *LimitHandler) Return(c *gin.Context) {
	var body adminReturnRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !validSiteID(body.SiteID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id must match ^[\\w\\-/\\.]{1,100}$"})
		return
	}

	claim, errReturn := h.svc.ReturnAdmin(c.Request.Context(), body.SiteID)
	if errReturn != nil {
		respondError(c, errReturn)
		return
	}

	log.WithFields(log.Fields{"site_id": body.SiteID, "user_id": claim.UserID}).Info("claim returned by admin")
	c.JSON(http.StatusOK, gin.H{"claim": toClaimResponse(claim)})
}
