// Package api implements the HTTP handlers of the network map editor: the
// sandboxed file browser, config load and save, palette icons, the editing
// session and notifications.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/catalog"
	"github.com/jbweber/homelab/netmap/internal/notify"
	"github.com/jbweber/homelab/netmap/internal/repository"
	"github.com/jbweber/homelab/netmap/internal/sandbox"
	"github.com/jbweber/homelab/netmap/internal/workspace"
)

// Prefixes are the mount points of the API. The browser UI is served under
// /networkmap and calls the API relative to it.
var Prefixes = []string{"/api", "/networkmap/api"}

// Deps holds everything the handlers need
type Deps struct {
	Guard         *sandbox.Guard
	Workspace     *workspace.Workspace
	Catalogs      *catalog.Loader
	IconsDir      string
	Notifications *notify.Service
	Hub           http.Handler                        // optional websocket stream
	Recent        repository.RecentDocumentRepository // optional
	Logger        *zap.Logger
}

// API holds the handler groups
type API struct {
	files         *Files
	configs       *Configs
	icons         *Icons
	session       *Session
	notifications *Notifications
	recent        *Recent
}

// NewAPI creates the handler groups from deps
func NewAPI(deps Deps) *API {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var recentStore RecentStore
	if deps.Recent != nil {
		recentStore = &recentStoreAdapter{repo: deps.Recent}
	}

	return &API{
		files:         NewFiles(deps.Guard, logger.Named("files")),
		configs:       NewConfigs(deps.Workspace, logger.Named("configs")),
		icons:         NewIcons(deps.IconsDir, deps.Catalogs, logger.Named("icons")),
		session:       NewSession(deps.Workspace, logger.Named("session")),
		notifications: NewNotifications(deps.Notifications, deps.Hub, logger.Named("notifications")),
		recent:        NewRecent(recentStore, logger.Named("recent")),
	}
}

// RegisterRoutes registers all API endpoints under every prefix.
func (a *API) RegisterRoutes(r chi.Router) {
	for _, prefix := range Prefixes {
		r.Route(prefix, a.routes)
	}
}

func (a *API) routes(r chi.Router) {
	// File browser endpoints group
	r.Get("/home-path", a.files.HomePathHandler)
	r.Get("/list-dir", a.files.ListDirHandler)
	r.Route("/files", func(r chi.Router) {
		r.Get("/", a.files.ListDirHandler)
		r.Post("/", a.files.CreateItemHandler)
		r.Delete("/", a.files.DeleteItemHandler)
	})

	// Config document endpoints group
	r.Get("/load-config", a.configs.LoadConfigHandler)
	r.Post("/save-config", a.configs.SaveConfigHandler)
	r.Get("/recent-configs", a.recent.RecentConfigsHandler)

	// Palette endpoints group
	r.Get("/icons/{category}", a.icons.IconsHandler)
	r.Get("/interfaces/{icon}", a.icons.InterfacesHandler)

	// Notification endpoints group
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", a.notifications.ListHandler)
		r.Delete("/", a.notifications.ClearHandler)
		r.Get("/ws", a.notifications.StreamHandler)
	})

	// Editing session endpoints group
	r.Route("/session", func(r chi.Router) {
		r.Get("/", a.session.GetSessionHandler)
		r.Post("/open", a.session.OpenHandler)
		r.Post("/save", a.session.SaveHandler)
		r.Get("/render", a.session.RenderHandler)
		r.Put("/editing", a.session.EditingHandler)
		r.Put("/viewport", a.session.ViewportHandler)
		r.Post("/canvas/click", a.session.ClickCanvasHandler)
		r.Post("/interfaces/select", a.session.SelectInterfaceHandler)

		r.Post("/devices", a.session.DropDeviceHandler)
		r.Patch("/devices/{id}", a.session.UpdateDeviceHandler)
		r.Delete("/devices/{id}", a.session.DeleteDeviceHandler)
		r.Post("/devices/{id}/drag", a.session.DragHandler)

		r.Post("/connections/{id}/click", a.session.ClickConnectionHandler)
		r.Patch("/connections/{id}", a.session.UpdateConnectionHandler)
		r.Delete("/connections/{id}", a.session.DeleteConnectionHandler)
	})
}
