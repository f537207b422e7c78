package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/domain"
	"github.com/jbweber/homelab/netmap/internal/workspace"
)

// Configs groups the config document load and save handlers
type Configs struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewConfigs(ws *workspace.Workspace, logger *zap.Logger) *Configs {
	return &Configs{ws: ws, logger: logger}
}

type SaveConfigRequest struct {
	Path   string           `json:"path"`
	Config *domain.Document `json:"config"`
}

// LoadConfigHandler handles GET /load-config?path=.
//
// Empty or unparsable files load as an empty document. Returns 403 outside
// the sandbox and 404 when the file does not exist.
func (c *Configs) LoadConfigHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, c.logger, http.StatusBadRequest, "Path parameter is required")
		return
	}

	doc, err := c.ws.LoadDocument(r.Context(), path)
	if err != nil {
		writeDomainError(w, c.logger, err, "Failed to load configuration")
		return
	}
	writeJSON(w, c.logger, http.StatusOK, doc.Normalize())
}

// SaveConfigHandler handles POST /save-config.
//
// Request: {"path", "config": {"devices", "connections"}}. The document is
// validated before anything is written; invalid documents get 400.
func (c *Configs) SaveConfigHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, c.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Path == "" {
		writeError(w, c.logger, http.StatusBadRequest, "Path is required")
		return
	}
	if req.Config == nil {
		writeError(w, c.logger, http.StatusBadRequest, "Config is required")
		return
	}

	path, err := c.ws.SaveDocument(r.Context(), req.Path, *req.Config)
	if err != nil {
		writeDomainError(w, c.logger, err, "Failed to save configuration")
		return
	}

	c.logger.Info("configuration saved",
		zap.String("path", path),
		zap.Int("devices", len(req.Config.Devices)),
		zap.Int("connections", len(req.Config.Connections)))
	writeJSON(w, c.logger, http.StatusOK, SuccessResponse{Success: true})
}
