package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/catalog"
)

// Icons groups the palette icon and interface catalog handlers
type Icons struct {
	iconsDir string
	catalogs *catalog.Loader
	logger   *zap.Logger
}

func NewIcons(iconsDir string, catalogs *catalog.Loader, logger *zap.Logger) *Icons {
	return &Icons{iconsDir: iconsDir, catalogs: catalogs, logger: logger}
}

// IconsHandler handles GET /icons/{category}.
func (i *Icons) IconsHandler(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	icons, err := catalog.Icons(i.iconsDir, category)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrUnknownCategory):
			writeError(w, i.logger, http.StatusNotFound, "Unknown icon category")
		case errors.Is(err, fs.ErrNotExist):
			i.logger.Error("icons directory not found", zap.String("category", category), zap.Error(err))
			writeError(w, i.logger, http.StatusInternalServerError, "Icons directory not found")
		default:
			i.logger.Error("failed to list icons", zap.String("category", category), zap.Error(err))
			writeError(w, i.logger, http.StatusInternalServerError, "Failed to read "+category+" icons directory")
		}
		return
	}
	writeJSON(w, i.logger, http.StatusOK, icons)
}

// InterfacesHandler handles GET /interfaces/{icon}, returning the interfaces
// available on devices drawn with that icon.
func (i *Icons) InterfacesHandler(w http.ResponseWriter, r *http.Request) {
	icon := chi.URLParam(r, "icon")

	cat, err := i.catalogs.ForIcon(icon)
	if err != nil {
		writeDomainError(w, i.logger, err, "Failed to load interface catalog")
		return
	}
	writeJSON(w, i.logger, http.StatusOK, cat)
}
