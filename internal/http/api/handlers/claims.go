package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/quota"
	"github.com/woodline-crm/woodquota/internal/settings"
	"github.com/woodline-crm/woodquota/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ClaimHandler serves the employee claim flow: status, take, return,
// history.
type ClaimHandler struct {
	svc   *quota.Service
	users *store.UserStore
}

// NewClaimHandler constructs a claim handler.
func NewClaimHandler(conn *gorm.DB, svc *quota.Service) *ClaimHandler {
	return &ClaimHandler{svc: svc, users: store.NewUserStore(conn)}
}

// claimRequest captures the payload for taking or returning a claim.
type claimRequest struct {
	UserID uint64 `json:"user_id"` // Employee identity key.
	SiteID string `json:"site_id"` // Contract or site identifier.
}

// claimResponse is the wire shape of one claim.
type claimResponse struct {
	ID          uint64     `json:"id"`
	UserID      uint64     `json:"user_id"`
	SiteID      string     `json:"site_id"`
	Month       string     `json:"month"`
	Cancelled   bool       `json:"cancelled"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toClaimResponse(claim *models.Claim) claimResponse {
	return claimResponse{
		ID:          claim.ID,
		UserID:      claim.UserID,
		SiteID:      claim.SiteID,
		Month:       claim.Month,
		Cancelled:   claim.Cancelled,
		CancelledAt: claim.CancelledAt,
		CreatedAt:   claim.CreatedAt,
	}
}

// bindClaimRequest validates the shared take/return payload.
func (h *ClaimHandler) bindClaimRequest(c *gin.Context) (*models.User, string, bool) {
	var body claimRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return nil, "", false
	}
	if body.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return nil, "", false
	}
	if !validSiteID(body.SiteID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id must match ^[\\w\\-/\\.]{1,100}$"})
		return nil, "", false
	}

	user, errGet := h.users.Get(c.Request.Context(), body.UserID)
	if errGet != nil {
		if errors.Is(errGet, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "code": "not_found"})
			return nil, "", false
		}
		respondError(c, errGet)
		return nil, "", false
	}
	return user, body.SiteID, true
}

// Take issues one claim against the caller's monthly quota.
func (h *ClaimHandler) Take(c *gin.Context) {
	user, siteID, ok := h.bindClaimRequest(c)
	if !ok {
		return
	}

	claim, errTake := h.svc.Take(c.Request.Context(), user.ID, user.Role, siteID)
	if errTake != nil {
		respondError(c, errTake)
		return
	}

	status, errStatus := h.svc.GetStatus(c.Request.Context(), user.ID, user.Role)
	if errStatus != nil {
		respondError(c, errStatus)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"claim":  toClaimResponse(claim),
		"status": status,
	})
}

// Return cancels the caller's most recent active claim for a site in the
// current month.
func (h *ClaimHandler) Return(c *gin.Context) {
	user, siteID, ok := h.bindClaimRequest(c)
	if !ok {
		return
	}

	claim, errReturn := h.svc.ReturnOwn(c.Request.Context(), user.ID, siteID)
	if errReturn != nil {
		respondError(c, errReturn)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": toClaimResponse(claim)})
}

// Status reports the caller's current-month quota position.
func (h *ClaimHandler) Status(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, errGet := h.users.Get(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}

	status, errStatus := h.svc.GetStatus(c.Request.Context(), user.ID, user.Role)
	if errStatus != nil {
		respondError(c, errStatus)
		return
	}
	c.JSON(http.StatusOK, status)
}

// History returns a page of the caller's active claims, newest first.
func (h *ClaimHandler) History(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, ok := parsePageQuery(c)
	if !ok {
		return
	}

	if _, errGet := h.users.Get(c.Request.Context(), id); errGet != nil {
		respondError(c, errGet)
		return
	}

	pageSize := settings.HistoryPageSize()
	claims, total, errHistory := h.svc.History(c.Request.Context(), id, (page-1)*pageSize, pageSize)
	if errHistory != nil {
		respondError(c, errHistory)
		return
	}

	rows := make([]claimResponse, 0, len(claims))
	for i := range claims {
		rows = append(rows, toClaimResponse(&claims[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"claims":    rows,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
