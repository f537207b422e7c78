package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/domain"
	"github.com/jbweber/homelab/netmap/internal/geometry"
	"github.com/jbweber/homelab/netmap/internal/topology"
	"github.com/jbweber/homelab/netmap/internal/workspace"
)

// Drag phases accepted by DragHandler.
const (
	DragBegin = "begin"
	DragMove  = "move"
	DragEnd   = "end"
)

// Session groups the handlers that drive the server-side editor of the
// open document
type Session struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewSession(ws *workspace.Workspace, logger *zap.Logger) *Session {
	return &Session{ws: ws, logger: logger}
}

// SessionResponse is the full editing session: document, path and
// interaction state
type SessionResponse struct {
	Path     string          `json:"path"`
	Document domain.Document `json:"document"`
	State    topology.State  `json:"state"`
}

type OpenRequest struct {
	Path string `json:"path"`
}

type SaveResponse struct {
	Success bool   `json:"success"`
	Saved   bool   `json:"saved"` // false when there was nothing to save
	Path    string `json:"path"`
}

type DropDeviceRequest struct {
	Type      string       `json:"type"`
	Icon      string       `json:"icon"`
	Label     string       `json:"label"`
	Client    domain.Point `json:"client"`    // pointer position on screen
	Container domain.Point `json:"container"` // canvas origin on screen
}

type DragRequest struct {
	Phase  string          `json:"phase"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Button topology.Button `json:"button"`
}

type DragResponse struct {
	Dragging bool           `json:"dragging"`
	Device   *domain.Device `json:"device,omitempty"`
}

type SelectInterfaceRequest struct {
	DeviceID  domain.ID        `json:"deviceId"`
	Interface domain.Interface `json:"interface"`
}

type SelectInterfaceResponse struct {
	Connection *domain.Connection `json:"connection,omitempty"`
	State      topology.State     `json:"state"`
}

type EditingRequest struct {
	Type  *domain.LineType `json:"type,omitempty"`
	Color *string          `json:"color,omitempty"`
}

type ViewportRequest struct {
	ZoomPercent *float64 `json:"zoomPercent,omitempty"`
	PanX        *float64 `json:"panX,omitempty"`
	PanY        *float64 `json:"panY,omitempty"`
}

func (s *Session) snapshot() SessionResponse {
	doc, state := s.ws.Editor().Snapshot()
	return SessionResponse{Path: s.ws.Path(), Document: doc.Normalize(), State: state}
}

// GetSessionHandler handles GET /session.
func (s *Session) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.snapshot())
}

// OpenHandler handles POST /session/open, loading a document into the editor.
func (s *Session) OpenHandler(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Path == "" {
		writeError(w, s.logger, http.StatusBadRequest, "Path is required")
		return
	}

	if _, err := s.ws.Open(r.Context(), req.Path); err != nil {
		writeDomainError(w, s.logger, err, "Failed to load configuration")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.snapshot())
}

// SaveHandler handles POST /session/save, writing the open document back.
func (s *Session) SaveHandler(w http.ResponseWriter, r *http.Request) {
	saved, err := s.ws.Save(r.Context())
	if err != nil {
		writeDomainError(w, s.logger, err, "Failed to save configuration")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, SaveResponse{Success: true, Saved: saved, Path: s.ws.Path()})
}

// DropDeviceHandler handles POST /session/devices.
func (s *Session) DropDeviceHandler(w http.ResponseWriter, r *http.Request) {
	var req DropDeviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	d, err := s.ws.Editor().DropDevice(req.Type, req.Icon, req.Label, req.Client, req.Container)
	if err != nil {
		writeDomainError(w, s.logger, err, "Failed to add device")
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, d)
}

// UpdateDeviceHandler handles PATCH /session/devices/{id}.
func (s *Session) UpdateDeviceHandler(w http.ResponseWriter, r *http.Request) {
	var patch topology.DevicePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	d, err := s.ws.Editor().UpdateDevice(domain.ID(chi.URLParam(r, "id")), patch)
	if err != nil {
		writeDomainError(w, s.logger, err, "Failed to update device")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, d)
}

// DeleteDeviceHandler handles DELETE /session/devices/{id}, removing the
// device and every connection attached to it.
func (s *Session) DeleteDeviceHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Editor().DeleteDevice(domain.ID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, s.logger, err, "Failed to delete device")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, SuccessResponse{Success: true})
}

// DragHandler handles POST /session/devices/{id}/drag.
//
// Request: {"phase": "begin"|"move"|"end", "x", "y", "button"} with the
// pointer position in screen pixels.
func (s *Session) DragHandler(w http.ResponseWriter, r *http.Request) {
	var req DragRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	editor := s.ws.Editor()
	pointer := domain.Point{X: req.X, Y: req.Y}

	switch req.Phase {
	case DragBegin:
		started, err := editor.BeginDrag(domain.ID(chi.URLParam(r, "id")), pointer, req.Button)
		if err != nil {
			writeDomainError(w, s.logger, err, "Failed to start drag")
			return
		}
		writeJSON(w, s.logger, http.StatusOK, DragResponse{Dragging: started})
	case DragMove, DragEnd:
		move := editor.DragTo
		if req.Phase == DragEnd {
			move = editor.EndDrag
		}
		d, err := move(pointer)
		if err != nil {
			writeDomainError(w, s.logger, err, "Failed to move device")
			return
		}
		writeJSON(w, s.logger, http.StatusOK, DragResponse{Dragging: req.Phase == DragMove, Device: &d})
	default:
		writeError(w, s.logger, http.StatusBadRequest, "Phase must be begin, move or end")
	}
}

// SelectInterfaceHandler handles POST /session/interfaces/select, the two
// click connection handshake. The first pick records the source; a pick on
// another device completes the connection.
func (s *Session) SelectInterfaceHandler(w http.ResponseWriter, r *http.Request) {
	var req SelectInterfaceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	editor := s.ws.Editor()
	c, err := editor.SelectInterface(req.DeviceID, req.Interface)
	if err != nil {
		writeDomainError(w, s.logger, err, "Failed to select interface")
		return
	}

	status := http.StatusOK
	if c != nil {
		status = http.StatusCreated
	}
	writeJSON(w, s.logger, status, SelectInterfaceResponse{Connection: c, State: editor.State()})
}

// ClickCanvasHandler handles POST /session/canvas/click.
func (s *Session) ClickCanvasHandler(w http.ResponseWriter, r *http.Request) {
	editor := s.ws.Editor()
	editor.ClickCanvas()
	writeJSON(w, s.logger, http.StatusOK, editor.State())
}

// ClickConnectionHandler handles POST /session/connections/{id}/click,
// toggling the selection.
func (s *Session) ClickConnectionHandler(w http.ResponseWriter, r *http.Request) {
	editor := s.ws.Editor()
	if err := editor.ClickConnection(domain.ID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, s.logger, err, "Failed to select connection")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, editor.State())
}

// UpdateConnectionHandler handles PATCH /session/connections/{id}.
func (s *Session) UpdateConnectionHandler(w http.ResponseWriter, r *http.Request) {
	var patch topology.ConnectionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	c, err := s.ws.Editor().UpdateConnection(domain.ID(chi.URLParam(r, "id")), patch)
	if err != nil {
		writeDomainError(w, s.logger, err, "Failed to update connection")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, c)
}

// DeleteConnectionHandler handles DELETE /session/connections/{id}.
func (s *Session) DeleteConnectionHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Editor().DeleteConnection(domain.ID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, s.logger, err, "Failed to delete connection")
		return
	}
	writeJSON(w, s.logger, http.StatusOK, SuccessResponse{Success: true})
}

// EditingHandler handles PUT /session/editing, setting the type and color
// for new connections and the selected one.
func (s *Session) EditingHandler(w http.ResponseWriter, r *http.Request) {
	var req EditingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	editor := s.ws.Editor()
	if req.Type != nil {
		if err := editor.SetEditingType(*req.Type); err != nil {
			writeDomainError(w, s.logger, err, "Failed to set connection type")
			return
		}
	}
	if req.Color != nil {
		if err := editor.SetEditingColor(*req.Color); err != nil {
			writeDomainError(w, s.logger, err, "Failed to set connection color")
			return
		}
	}
	writeJSON(w, s.logger, http.StatusOK, editor.State())
}

// ViewportHandler handles PUT /session/viewport. Pan values are absolute
// offsets; zoom is clamped to the supported range.
func (s *Session) ViewportHandler(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}

	editor := s.ws.Editor()
	if req.ZoomPercent != nil {
		if err := editor.SetZoomPercent(*req.ZoomPercent); err != nil {
			writeDomainError(w, s.logger, err, "Failed to set zoom")
			return
		}
	}
	if req.PanX != nil || req.PanY != nil {
		vp := editor.Viewport()
		dx, dy := 0.0, 0.0
		if req.PanX != nil {
			dx = *req.PanX - vp.PanX
		}
		if req.PanY != nil {
			dy = *req.PanY - vp.PanY
		}
		if err := editor.Pan(dx, dy); err != nil {
			writeDomainError(w, s.logger, err, "Failed to pan")
			return
		}
	}
	writeJSON(w, s.logger, http.StatusOK, editor.Viewport())
}

// RenderHandler handles GET /session/render, returning the open document
// as SVG.
//
// Query: iconSize (default 70), hideLabels (bool), background (fill color).
func (s *Session) RenderHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := geometry.RenderOptions{Background: q.Get("background")}

	if v := q.Get("iconSize"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil || size <= 0 {
			writeError(w, s.logger, http.StatusBadRequest, "iconSize must be a positive number")
			return
		}
		opts.IconSize = size
	}
	if v := q.Get("hideLabels"); v != "" {
		hide, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, s.logger, http.StatusBadRequest, "hideLabels must be a boolean")
			return
		}
		opts.HideLabels = hide
	}

	doc, state := s.ws.Editor().Snapshot()
	opts.Selected = state.Selected

	var buf bytes.Buffer
	if err := geometry.RenderSVG(&buf, doc, opts); err != nil {
		s.logger.Error("failed to render diagram", zap.Error(err))
		writeError(w, s.logger, http.StatusInternalServerError, "Failed to render diagram")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("failed to write svg", zap.Error(err))
	}
}
