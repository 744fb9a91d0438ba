package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/commutehq/corp-rides/internal/api/dto"
	"github.com/commutehq/corp-rides/internal/service/analytics"
	auditsvc "github.com/commutehq/corp-rides/internal/service/audit"
	"github.com/commutehq/corp-rides/internal/service/auth"
	"github.com/commutehq/corp-rides/internal/service/rides"
	"github.com/commutehq/corp-rides/internal/service/users"
	apperrors "github.com/commutehq/corp-rides/pkg/errors"
	"github.com/commutehq/corp-rides/pkg/logger"
	"github.com/commutehq/corp-rides/pkg/websocket"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Auth      *auth.Service
	Users     *users.Service
	Rides     *rides.Service
	Auditor   *auditsvc.Recorder
	Analytics *analytics.Service
	Hub       *websocket.Hub
	Logger    *logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(authService *auth.Service, usersService *users.Service, ridesService *rides.Service, auditor *auditsvc.Recorder, analyticsService *analytics.Service, hub *websocket.Hub, log *logger.Logger) *Handlers {
	return &Handlers{
		Auth:      authService,
		Users:     usersService,
		Rides:     ridesService,
		Auditor:   auditor,
		Analytics: analyticsService,
		Hub:       hub,
		Logger:    log,
	}
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, dto.Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondError translates any error to the envelope via the taxonomy.
// Unexpected errors are logged and returned as a generic 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.Logger.Error("Request failed",
			logger.Err(err),
			logger.String("path", c.FullPath()),
		)
		// Do not leak internals
		appErr = apperrors.Internal("An unexpected error occurred", nil)
	}
	c.JSON(appErr.Status, dto.Envelope{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

func (h *Handlers) respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.Envelope{
		Success: false,
		Message: "Invalid request payload",
		Errors:  []apperrors.FieldError{{Field: "body", Message: err.Error()}},
	})
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}
