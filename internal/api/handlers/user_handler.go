package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commutehq/corp-rides/internal/api/dto"
	"github.com/commutehq/corp-rides/internal/api/middleware"
	"github.com/commutehq/corp-rides/internal/service/users"
)

// GetProfile handles GET /api/users/me
func (h *Handlers) GetProfile(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	respond(c, http.StatusOK, "Profile", u)
}

// UpdateProfile handles PUT /api/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	updated, err := h.Users.UpdateProfile(c.Request.Context(), u, users.ProfileInput{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Department: req.Department,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Profile updated", updated)
}

// ChangePassword handles PUT /api/users/me/password
func (h *Handlers) ChangePassword(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	if err := h.Auth.ChangePassword(c.Request.Context(), u, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Password changed", nil)
}
