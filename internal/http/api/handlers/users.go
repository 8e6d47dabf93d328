package handlers

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/woodline-crm/woodquota/internal/models"
	"github.com/woodline-crm/woodquota/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserHandler serves the employee directory: onboarding, lookup, and the
// admin CRUD surface.
type UserHandler struct {
	users *store.UserStore
}

// NewUserHandler constructs a user handler.
func NewUserHandler(conn *gorm.DB) *UserHandler {
	return &UserHandler{users: store.NewUserStore(conn)}
}

// createUserRequest captures the onboarding payload.
type createUserRequest struct {
	ID       uint64 `json:"id"`        // Stable external identity key.
	FullName string `json:"full_name"` // Employee full name.
	Phone    string `json:"phone"`     // Contact phone.
	Role     string `json:"role"`      // One of the known roles.
}

// userResponse is the wire shape of one directory entry.
type userResponse struct {
	ID        uint64    `json:"id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	RoleLabel string    `json:"role_label"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Phone:     user.Phone,
		Role:      user.Role,
		RoleLabel: models.RoleLabels[user.Role],
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
}

// Create onboards a new employee.
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if body.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	fullName := strings.TrimSpace(body.FullName)
	if nameLen := utf8.RuneCountInString(fullName); nameLen < 2 || nameLen > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "full_name must be 2-100 characters"})
		return
	}
	phone := strings.TrimSpace(body.Phone)
	if utf8.RuneCountInString(phone) > 20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone must be at most 20 characters"})
		return
	}
	if !models.ValidRole(body.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be one of: " + strings.Join(models.Roles, ", ")})
		return
	}

	if _, errGet := h.users.Get(c.Request.Context(), body.ID); errGet == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists", "code": "duplicate_user"})
		return
	}

	user := &models.User{
		ID:       body.ID,
		FullName: fullName,
		Phone:    phone,
		Role:     body.Role,
	}
	if errCreate := h.users.Create(c.Request.Context(), user); errCreate != nil {
		respondError(c, errCreate)
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("user onboarded")
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Get returns one directory entry.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, errGet := h.users.Get(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// List returns the whole directory ordered by full name.
func (h *UserHandler) List(c *gin.Context) {
	users, errList := h.users.List(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}

	rows := make([]userResponse, 0, len(users))
	for i := range users {
		rows = append(rows, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": rows, "total": len(rows)})
}

// updateUserRequest captures a role or admin-flag change. Absent fields are
// left untouched.
type updateUserRequest struct {
	Role    *string `json:"role"`     // New role, if set.
	IsAdmin *bool   `json:"is_admin"` // New administrator flag, if set.
}

// Update changes an employee's role or administrator flag.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body updateUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Role == nil && body.IsAdmin == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if body.Role != nil && !models.ValidRole(*body.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be one of: " + strings.Join(models.Roles, ", ")})
		return
	}

	if _, errGet := h.users.Get(c.Request.Context(), id); errGet != nil {
		respondError(c, errGet)
		return
	}

	if body.Role != nil {
		if errSet := h.users.SetRole(c.Request.Context(), id, *body.Role); errSet != nil {
			respondError(c, errSet)
			return
		}
	}
	if body.IsAdmin != nil {
		if errSet := h.users.SetAdmin(c.Request.Context(), id, *body.IsAdmin); errSet != nil {
			respondError(c, errSet)
			return
		}
	}

	user, errGet := h.users.Get(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, errGet)
		return
	}

	log.WithFields(log.Fields{"user_id": id, "role": user.Role, "is_admin": user.IsAdmin}).Info("user updated")
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes an employee together with their claims and personal
// override. An administrator cannot delete their own record.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if callerID, exists := c.Get("callerID"); exists {
		if caller, okID := callerID.(uint64); okID && caller == id {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot delete own account", "code": "self_delete"})
			return
		}
	}

	removed, errDelete := h.users.Delete(c.Request.Context(), id)
	if errDelete != nil {
		respondError(c, errDelete)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found", "code": "not_found"})
		return
	}

	log.WithField("user_id", id).Info("user deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
