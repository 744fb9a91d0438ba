package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/commutehq/corp-rides/internal/api/dto"
	"github.com/commutehq/corp-rides/internal/service/auth"
)

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	u, err := h.Auth.Register(c.Request.Context(), auth.RegisterInput{
		Email:      req.Email,
		EmployeeID: req.EmployeeID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Department: req.Department,
		Password:   req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Registration successful", u)
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	u, token, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Login successful", dto.LoginResponse{
		Token: token,
		User:  u,
	})
}

// ForgotPassword handles POST /api/auth/forgot-password
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	// The token would be delivered out of band (email); the response is
	// identical whether or not the account exists.
	if _, err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "If the account exists, a reset token has been sent", nil)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	if err := h.Auth.ResetPassword(c.Request.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Password has been reset", nil)
}
