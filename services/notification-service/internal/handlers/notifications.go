package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/practiceops/practiceops/libs/apperr"
	"github.com/practiceops/practiceops/libs/httpx"
	"github.com/practiceops/practiceops/services/notification-service/internal/realtime"
	"github.com/practiceops/practiceops/services/notification-service/internal/storage"
)

type Store interface {
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]storage.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, ids []string) (int64, error)
}

type NotificationsHandler struct {
	store     Store
	hub       realtime.Hub
	logger    *slog.Logger
	heartbeat time.Duration
}

func NewNotificationsHandler(store Store, hub realtime.Hub, logger *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{store: store, hub: hub, logger: logger, heartbeat: 25 * time.Second}
}

func (h *NotificationsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ops/notifications", h.List)
	mux.HandleFunc("POST /api/v1/ops/notifications/read", h.MarkRead)
	mux.HandleFunc("GET /api/v1/ops/notifications/stream", h.Stream)
}

type listResponse struct {
	Items       []storage.Notification `json:"items"`
	UnreadCount int                    `json:"unread_count"`
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit", 20)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	switch {
	case limit == 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	offset, err := intParam(q.Get("offset"), "offset", 0)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	unread := strings.EqualFold(q.Get("unread"), "true") || q.Get("unread") == "1"

	items, err := h.store.List(r.Context(), unread, limit, offset)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	count, err := h.store.UnreadCount(r.Context())
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	if items == nil {
		items = []storage.Notification{}
	}
	httpx.WriteJSON(w, http.StatusOK, listResponse{Items: items, UnreadCount: count})
}

type markReadRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// MarkRead takes {"ids":[...]} or {"all":true}.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	if !req.All && len(req.IDs) == 0 {
		httpx.WriteError(w, h.logger, r, apperr.Validation("ids", "ids or all is required"))
		return
	}
	if req.All {
		req.IDs = nil
	}
	n, err := h.store.MarkRead(r.Context(), req.IDs)
	if err != nil {
		httpx.WriteError(w, h.logger, r, err)
		return
	}
	if n > 0 {
		if err := h.hub.Publish(r.Context(), realtime.ChannelChanges, realtime.Change{Table: "notifications", Event: "update"}); err != nil {
			h.logger.Warn("realtime publish failed", "err", err)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// Stream forwards both realtime channels as Server-Sent Events until the
// client goes away.
func (h *NotificationsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	msgs, stop, err := h.hub.Subscribe(r.Context())
	if err != nil {
		h.logger.Error("realtime subscribe failed", "err", err)
		httpx.WriteError(w, h.logger, r, apperr.FetchFailed("realtime", err))
		return
	}
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		h.logger.Error("sse flush unsupported", "err", err)
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
		case m, ok := <-msgs:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName(m.Channel), m.Payload)
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func eventName(channel string) string {
	switch channel {
	case realtime.ChannelNotifications:
		return "notification"
	case realtime.ChannelChanges:
		return "change"
	default:
		return "message"
	}
}

func intParam(raw, field string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation(field, field+" must be a non-negative integer")
	}
	return n, nil
}
