package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/commutehq/corp-rides/internal/api/middleware"
	"github.com/commutehq/corp-rides/pkg/logger"
	"github.com/commutehq/corp-rides/pkg/websocket"
)

// HandleEventFeed handles GET /api/admin/ws, the dashboard event feed
func (h *Handlers) HandleEventFeed(c *gin.Context) {
	admin, _ := middleware.CurrentUser(c)

	upgrader := gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, admin.ID.String(), h.Logger)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
