package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// events streams broadcaster events to one dashboard client as Server-Sent
// Events until the client disconnects or the broadcaster closes.
func (h *Handler) events(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates unavailable"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable Nginx buffering

	id, events := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.SSEvent("connected", gin.H{"subscriber": id, "at": h.now()})
	c.Writer.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("sse client disconnected", "subscriber", id)
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(string(e.Type), e)
			c.Writer.Flush()
		case <-keepalive.C:
			// Comment line to keep proxies from timing out the stream
			if _, err := fmt.Fprint(c.Writer, ": keepalive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
