package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/repository"
)

// defaultRecentLimit is how many documents GET /recent-configs returns
// without a limit parameter.
const defaultRecentLimit = 10

// RecentConfig is a recently loaded or saved config document
type RecentConfig struct {
	Path            string    `json:"path"`
	LastAction      string    `json:"lastAction"`
	DeviceCount     int       `json:"deviceCount"`
	ConnectionCount int       `json:"connectionCount"`
	AccessedAt      time.Time `json:"accessedAt"`
}

// RecentStore defines the datastore interface for the recent configs handler
type RecentStore interface {
	ListRecent(ctx context.Context, limit int) ([]RecentConfig, error)
}

// recentStoreAdapter adapts RecentDocumentRepository to RecentStore
type recentStoreAdapter struct {
	repo repository.RecentDocumentRepository
}

func (a *recentStoreAdapter) ListRecent(ctx context.Context, limit int) ([]RecentConfig, error) {
	docs, err := a.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	result := make([]RecentConfig, 0, len(docs))
	for _, d := range docs {
		result = append(result, RecentConfig{
			Path:            d.Path,
			LastAction:      d.LastAction,
			DeviceCount:     d.DeviceCount,
			ConnectionCount: d.ConnectionCount,
			AccessedAt:      d.AccessedAt,
		})
	}
	return result, nil
}

// Recent groups the document history handlers
type Recent struct {
	store  RecentStore
	logger *zap.Logger
}

func NewRecent(store RecentStore, logger *zap.Logger) *Recent {
	return &Recent{store: store, logger: logger}
}

// RecentConfigsHandler handles GET /recent-configs?limit=.
func (rc *Recent) RecentConfigsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > repository.MaxRecentDocuments {
			writeError(w, rc.logger, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	if rc.store == nil {
		writeJSON(w, rc.logger, http.StatusOK, []RecentConfig{})
		return
	}

	docs, err := rc.store.ListRecent(r.Context(), limit)
	if err != nil {
		rc.logger.Error("failed to list recent configs", zap.Error(err))
		writeError(w, rc.logger, http.StatusInternalServerError, "Failed to list recent configs")
		return
	}
	writeJSON(w, rc.logger, http.StatusOK, docs)
}
