package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/woodline-crm/woodquota/internal/broadcast"
	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/settings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// AnnouncementHandler serves the admin broadcast outbox.
type AnnouncementHandler struct {
	svc *broadcast.Service
}

// NewAnnouncementHandler constructs an announcement handler.
func NewAnnouncementHandler(svc *broadcast.Service) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

// createAnnouncementRequest captures the broadcast payload.
type createAnnouncementRequest struct {
	TargetUserID *uint64 `json:"target_user_id"` // Single recipient, null for everyone.
	Body         string  `json:"body"`           // Message text.
}

// announcementResponse is the wire shape of one outbox row.
type announcementResponse struct {
	ID           uint64    `json:"id"`
	AuthorID     uint64    `json:"author_id"`
	TargetUserID *uint64   `json:"target_user_id,omitempty"`
	Body         string    `json:"body"`
	Delivered    bool      `json:"delivered"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAnnouncementResponse(row *models.Announcement) announcementResponse {
	return announcementResponse{
		ID:           row.ID,
		AuthorID:     row.AuthorID,
		TargetUserID: row.TargetUserID,
		Body:         row.Body,
		Delivered:    len(row.Delivery) > 0,
		CreatedAt:    row.CreatedAt,
	}
}

// Create queues one announcement for delivery.
func (h *AnnouncementHandler) Create(c *gin.Context) {
	callerID, exists := c.Get("callerID")
	authorID, okID := callerID.(uint64)
	if !exists || !okID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity missing"})
		return
	}

	var body createAnnouncementRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	row, errEnqueue := h.svc.Enqueue(c.Request.Context(), authorID, body.TargetUserID, body.Body)
	if errEnqueue != nil {
		switch {
		case errors.Is(errEnqueue, broadcast.ErrEmptyBody):
			c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
		case errors.Is(errEnqueue, broadcast.ErrBodyTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": "body is too long"})
		case errors.Is(errEnqueue, broadcast.ErrUnknownTarget):
			c.JSON(http.StatusNotFound, gin.H{"error": "target user not found", "code": "not_found"})
		default:
			respondError(c, errEnqueue)
		}
		return
	}

	log.WithFields(log.Fields{"announcement_id": row.ID, "author_id": authorID}).Info("announcement queued")
	c.JSON(http.StatusCreated, toAnnouncementResponse(row))
}

// RecordDelivery stores the external deliverer's report for one outbox row.
func (h *AnnouncementHandler) RecordDelivery(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	raw, errRead := c.GetRawData()
	if errRead != nil || !json.Valid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON delivery report"})
		return
	}

	updated, errRecord := h.svc.RecordDelivery(c.Request.Context(), id, datatypes.JSON(raw))
	if errRecord != nil {
		respondError(c, errRecord)
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "announcement not found", "code": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

// List returns a page of the outbox, newest first.
func (h *AnnouncementHandler) List(c *gin.Context) {
	page, ok := parsePageQuery(c)
	if !ok {
		return
	}

	pageSize := settings.ReturnsPageSize()
	rows, total, errList := h.svc.List(c.Request.Context(), (page-1)*pageSize, pageSize)
	if errList != nil {
		respondError(c, errList)
		return
	}

	out := make([]announcementResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toAnnouncementResponse(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"announcements": out,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}
