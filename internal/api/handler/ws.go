package handler

import (
	"net/http"
	"ouvidoria/backend/internal/feed"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Admin dashboards are served from the gate's origin, and the token check
	// already ran in AdminAuth.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeFeed upgrades GET /admin/feed to a websocket that receives an event
// for every new complaint.
func (h *Handler) ServeFeed(c *gin.Context) {
	if h.Hub == nil {
		h.abortWithCode(c, http.StatusServiceUnavailable, codeInternal)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.Logger.Warn("feed upgrade failed", "error", err)
		return
	}

	client := feed.NewWebSocketClient(uuid.NewString(), conn, h.Hub, h.Logger)
	if !h.Hub.Register(client) {
		_ = conn.Close()
		return
	}
	client.Run()
}
