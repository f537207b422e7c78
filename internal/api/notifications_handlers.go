package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/notify"
)

// Notifications groups the notification history and live stream handlers
type Notifications struct {
	svc    *notify.Service
	hub    http.Handler
	logger *zap.Logger
}

func NewNotifications(svc *notify.Service, hub http.Handler, logger *zap.Logger) *Notifications {
	return &Notifications{svc: svc, hub: hub, logger: logger}
}

type NotificationsResponse struct {
	Toasts  []notify.Notification                 `json:"toasts"`
	History []notify.Notification                 `json:"history"`
	Grouped map[notify.Kind][]notify.Notification `json:"grouped,omitempty"`
}

// ListHandler handles GET /notifications: active toasts and the retained
// history, newest first. With ?grouped=true the history is also returned
// bucketed by kind for the history panel.
func (n *Notifications) ListHandler(w http.ResponseWriter, r *http.Request) {
	resp := NotificationsResponse{
		Toasts:  n.svc.Toasts(),
		History: n.svc.History(),
	}
	if raw := r.URL.Query().Get("grouped"); raw != "" {
		grouped, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, n.logger, http.StatusBadRequest, "grouped must be a boolean")
			return
		}
		if grouped {
			resp.Grouped = n.svc.Grouped()
		}
	}
	if resp.Toasts == nil {
		resp.Toasts = []notify.Notification{}
	}
	writeJSON(w, n.logger, http.StatusOK, resp)
}

// ClearHandler handles DELETE /notifications.
func (n *Notifications) ClearHandler(w http.ResponseWriter, r *http.Request) {
	n.svc.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// StreamHandler handles GET /notifications/ws.
func (n *Notifications) StreamHandler(w http.ResponseWriter, r *http.Request) {
	if n.hub == nil {
		writeError(w, n.logger, http.StatusNotImplemented, "Notification stream not available")
		return
	}
	n.hub.ServeHTTP(w, r)
}
