package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/commutehq/corp-rides/internal/api/dto"
	"github.com/commutehq/corp-rides/internal/api/middleware"
	"github.com/commutehq/corp-rides/internal/domain/ride"
	"github.com/commutehq/corp-rides/internal/service/rides"
	apperrors "github.com/commutehq/corp-rides/pkg/errors"
)

// CreateRide handles POST /api/rides
func (h *Handlers) CreateRide(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var req dto.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	rd, err := h.Rides.Create(c.Request.Context(), u, rides.CreateInput{
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		ScheduleTime:   req.ScheduleTime,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "Ride requested", rd)
}

// GetRide handles GET /api/rides/:id
func (h *Handlers) GetRide(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	rideID, err := parseRideID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	rd, err := h.Rides.Get(c.Request.Context(), u, rideID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ride", rd)
}

// ListRides handles GET /api/rides and GET /api/admin/rides. Non-admin
// callers are always scoped to their own rides by the service.
func (h *Handlers) ListRides(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	params, err := listParamsFromQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items, total, err := h.Rides.List(c.Request.Context(), u, params)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Rides", dto.Page{
		Items:    items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

// UpdateRide handles PUT /api/rides/:id
func (h *Handlers) UpdateRide(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	rideID, err := parseRideID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.UpdateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	rd, err := h.Rides.Edit(c.Request.Context(), u, rideID, rides.EditInput{
		PickupLocation: req.PickupLocation,
		DropLocation:   req.DropLocation,
		ScheduleTime:   req.ScheduleTime,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ride updated", rd)
}

// CancelRide handles DELETE /api/rides/:id
func (h *Handlers) CancelRide(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	rideID, err := parseRideID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.CancelRideRequest
	// Body is optional for cancellation
	_ = c.ShouldBindJSON(&req)

	rd, err := h.Rides.Cancel(c.Request.Context(), u, rideID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Ride cancelled", rd)
}

// SubmitFeedback handles POST /api/rides/:id/feedback
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	rideID, err := parseRideID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	rd, err := h.Rides.AttachFeedback(c.Request.Context(), u, rideID, req.Rating, req.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "Feedback recorded", rd)
}

func parseRideID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.Validation("Invalid ride id").
			WithField("id", "must be a valid UUID")
	}
	return id, nil
}

func listParamsFromQuery(c *gin.Context) (rides.ListParams, error) {
	page, pageSize := pageParams(c)
	params := rides.ListParams{
		Page:       page,
		PageSize:   pageSize,
		Department: c.Query("department"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := ride.Status(statusStr)
		params.Status = &status
	}
	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return params, apperrors.Validation("Invalid date filter").
				WithField("from", "must be RFC 3339")
		}
		params.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return params, apperrors.Validation("Invalid date filter").
				WithField("to", "must be RFC 3339")
		}
		params.To = &to
	}
	if ownerStr := c.Query("user_id"); ownerStr != "" {
		owner, err := uuid.Parse(ownerStr)
		if err != nil {
			return params, apperrors.Validation("Invalid owner filter").
				WithField("user_id", "must be a valid UUID")
		}
		params.UserID = &owner
	}
	return params, nil
}
