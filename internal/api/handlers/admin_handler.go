package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/api/dto"
	"github.com/commutehq/corp-rides/internal/api/middleware"
	"github.com/commutehq/corp-rides/internal/domain/audit"
	"github.com/commutehq/corp-rides/internal/domain/ride"
	auditsvc "github.com/commutehq/corp-rides/internal/service/audit"
	apperrors "github.com/commutehq/corp-rides/pkg/errors"
)

// ApproveRide handles PUT /api/admin/rides/:id/approve
func (h *Handlers) ApproveRide(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	rideID, err := parseRideID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.ApproveRideRequest
	// Driver assignment is optional
	_ = c.ShouldBindJSON(&req)

	var driver *ride.DriverInfo
	if req.Driver != nil {
		driver = &ride.DriverInfo{
			Name:    req.Driver.Name,
			Phone:   req.Driver.Phone,
			Vehicle: req.Driver.Vehicle,
			Rating:  req.Driver.Rating,
		}
	}

	rd, err := h.Rides.Approve(c.Request.Context(), admin, rideID, driver)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ride approved", rd)
}

// RejectRide handles PUT /api/admin/rides/:id/reject
func (h *Handlers) RejectRide(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	rideID, err := parseRideID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.RejectRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.Validation("Rejection reason is required").
			WithField("reason", "must not be blank"))
		return
	}

	rd, err := h.Rides.Reject(c.Request.Context(), admin, rideID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ride rejected", rd)
}

// StartRide handles PUT /api/admin/rides/:id/start
func (h *Handlers) StartRide(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	rideID, err := parseRideID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rd, err := h.Rides.Start(c.Request.Context(), admin, rideID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ride started", rd)
}

// CompleteRide handles PUT /api/admin/rides/:id/complete
func (h *Handlers) CompleteRide(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	rideID, err := parseRideID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.CompleteRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	rd, err := h.Rides.Complete(c.Request.Context(), admin, rideID, req.ActualFare)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ride completed", rd)
}

// ListUsers handles GET /api/admin/users
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := pageParams(c)

	items, total, err := h.Users.List(c.Request.Context(), page, pageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Users", dto.Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// SetUserStatus handles PUT /api/admin/users/:id/status
func (h *Handlers) SetUserStatus(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, apperrors.Validation("Invalid user id").
			WithField("id", "must be a valid UUID"))
		return
	}

	var req dto.SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	u, err := h.Users.SetActive(c.Request.Context(), admin, userID, *req.Active, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "User status updated", u)
}

// GetAnalytics handles GET /api/admin/analytics
func (h *Handlers) GetAnalytics(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	summary, err := h.Analytics.Summary(c.Request.Context(), admin)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Analytics", summary)
}

// ListAdminActions handles GET /api/admin/actions
func (h *Handlers) ListAdminActions(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)
	page, pageSize := pageParams(c)

	filter := audit.QueryFilter{}
	if adminStr := c.Query("admin_id"); adminStr != "" {
		adminID, err := uuid.Parse(adminStr)
		if err != nil {
			h.respondError(c, apperrors.Validation("Invalid admin filter").
				WithField("admin_id", "must be a valid UUID"))
			return
		}
		filter.AdminID = &adminID
	}
	if actionStr := c.Query("action"); actionStr != "" {
		action := audit.ActionType(actionStr)
		if !action.IsValid() {
			h.respondError(c, apperrors.Validation("Invalid action filter").
				WithField("action", "unknown action type"))
			return
		}
		filter.Action = &action
	}
	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			h.respondError(c, apperrors.Validation("Invalid date filter").
				WithField("from", "must be RFC 3339"))
			return
		}
		filter.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			h.respondError(c, apperrors.Validation("Invalid date filter").
				WithField("to", "must be RFC 3339"))
			return
		}
		filter.To = &to
	}

	items, total, err := h.Auditor.Query(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Reading the audit trail is itself audited
	h.Auditor.Log(c.Request.Context(), auditsvc.Entry{
		AdminID:    admin.ID,
		Action:     audit.ActionViewAuditTrail,
		TargetType: audit.TargetSystem,
		Success:    true,
	})

	respond(c, http.StatusOK, "Admin actions", dto.Page{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
