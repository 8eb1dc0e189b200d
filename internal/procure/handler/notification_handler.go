package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/procure/internal/procure/service"
	"github.com/bitfantasy/procure/internal/sse"
	"github.com/gin-gonic/gin"
)

// NotificationHandler 通知处理器（收件箱 + SSE推送）
type NotificationHandler struct {
	svc *service.NotificationService
	hub *sse.Hub
}

func NewNotificationHandler(svc *service.NotificationService, hub *sse.Hub) *NotificationHandler {
	return &NotificationHandler{svc: svc, hub: hub}
}

// ListNotifications 当前用户的通知列表
// GET /api/v1/procure/notifications?unread_only=true
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	page, pageSize := GetPagination(c)
	unreadOnly := c.Query("unread_only") == "true"

	items, total, err := h.svc.ListNotifications(c.Request.Context(), GetUserID(c), unreadOnly, page, pageSize)
	if err != nil {
		InternalError(c, "获取通知列表失败: "+err.Error())
		return
	}

	Success(c, listResponse(items, page, pageSize, total))
}

// MarkRead 标记单条通知已读
// POST /api/v1/procure/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.MarkRead(c.Request.Context(), GetUserID(c), id); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// MarkAllRead 全部标记已读
// POST /api/v1/procure/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.svc.MarkAllRead(c.Request.Context(), GetUserID(c)); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}

// Stream handles the SSE endpoint
// GET /api/v1/procure/sse/events?token=xxx
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID := GetUserID(c)
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())

	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Events: make(chan sse.Event, 64),
	}

	h.hub.Register(client)

	// Set SSE headers
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	// Send initial connection event
	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	// Heartbeat ticker
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	// Client disconnect detection
	clientGone := c.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
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
