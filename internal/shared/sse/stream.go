package sse

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler handles SSE connections
type Handler struct {
	hub       *Hub
	heartbeat time.Duration
}

// NewHandler creates a new SSE handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream GET /api/v1/sse/events?token=xxx
func (h *Handler) Stream(c *gin.Context) {
	client := NewClient(c.GetString("user_id"), 64)
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + client.ID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			h.hub.Unregister(client.ID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
