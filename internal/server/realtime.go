package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	realtimeEventChange    = "change"
	realtimeEventHeartbeat = "heartbeat"
	heartbeatInterval      = 25 * time.Second
)

type realtimeEventPayload struct {
	Kind      string `json:"kind"`
	Timestamp int64  `json:"ts"`
}

// handleRealtime streams store change notifications as server-sent events.
// The stream closes when the client disconnects.
func (h *httpHandler) handleRealtime(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	stream, cleanup := h.store.Subscribe(c.Request.Context())
	defer cleanup()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case change, ok := <-stream:
			if !ok {
				return
			}
			h.writeEvent(c, realtimeEventChange, realtimeEventPayload{
				Kind:      string(change.Kind),
				Timestamp: change.At.Unix(),
			})
		case <-heartbeat.C:
			h.writeEvent(c, realtimeEventHeartbeat, realtimeEventPayload{
				Kind:      realtimeEventHeartbeat,
				Timestamp: time.Now().Unix(),
			})
		}
	}
}

func (h *httpHandler) writeEvent(c *gin.Context, eventName string, payload realtimeEventPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("failed to encode realtime payload", zap.Error(err))
		return
	}
	c.SSEvent(eventName, string(data))
	c.Writer.Flush()
}
