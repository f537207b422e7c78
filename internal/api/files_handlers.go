package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/sandbox"
)

// Item types accepted by CreateItemHandler.
const (
	ItemFile      = "file"
	ItemDirectory = "directory"
)

// Files groups the file browser handlers. Every path is checked by the
// sandbox guard before the filesystem is touched.
type Files struct {
	guard  *sandbox.Guard
	logger *zap.Logger
}

func NewFiles(guard *sandbox.Guard, logger *zap.Logger) *Files {
	return &Files{guard: guard, logger: logger}
}

type HomePathResponse struct {
	Path string `json:"path"`
}

// DirEntry is one row of a directory listing
type DirEntry struct {
	Name        string    `json:"name"`
	IsDirectory bool      `json:"isDirectory"`
	Size        int64     `json:"size"`
	Modified    time.Time `json:"modified"`
	Created     time.Time `json:"created"`
}

type CreateItemRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Type string `json:"type"` // ItemFile or ItemDirectory
}

type DeleteItemRequest struct {
	Path string `json:"path"`
}

// HomePathHandler handles GET /home-path.
func (f *Files) HomePathHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, f.logger, http.StatusOK, HomePathResponse{Path: f.guard.Root()})
}

// ListDirHandler handles GET /list-dir and GET /files.
//
// Request: ?path= directory to list.
// Returns 400 without a path or when it is not a directory, 403 outside the
// sandbox, 404 when missing. Entries that vanish mid-listing are skipped.
func (f *Files) ListDirHandler(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("path")
	if dir == "" {
		writeError(w, f.logger, http.StatusBadRequest, "Path parameter is required")
		return
	}

	resolved, err := f.guard.Resolve(dir)
	if err != nil {
		writeDomainError(w, f.logger, err, "Failed to read directory contents")
		return
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, f.logger, http.StatusNotFound, "Directory not found")
			return
		}
		f.logger.Error("failed to stat directory", zap.String("path", resolved), zap.Error(err))
		writeError(w, f.logger, http.StatusInternalServerError, "Failed to read directory contents")
		return
	}
	if !info.IsDir() {
		writeError(w, f.logger, http.StatusBadRequest, "Path is not a directory")
		return
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		f.logger.Error("failed to read directory", zap.String("path", resolved), zap.Error(err))
		writeError(w, f.logger, http.StatusInternalServerError, "Failed to read directory contents")
		return
	}

	items := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		st, err := os.Stat(filepath.Join(resolved, e.Name()))
		if err != nil {
			continue
		}
		items = append(items, DirEntry{
			Name:        e.Name(),
			IsDirectory: e.IsDir(),
			Size:        st.Size(),
			Modified:    st.ModTime(),
			Created:     st.ModTime(), // birth time is not exposed portably
		})
	}
	writeJSON(w, f.logger, http.StatusOK, items)
}

// CreateItemHandler handles POST /files.
//
// Request: {"path", "name", "type"}. A directory is created with its
// parents; a file is created empty and an existing file is left untouched.
func (f *Files) CreateItemHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, f.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Path == "" || req.Name == "" {
		writeError(w, f.logger, http.StatusBadRequest, "Path and name are required")
		return
	}

	target, err := f.guard.Join(req.Path, req.Name)
	if err != nil {
		writeDomainError(w, f.logger, err, "Failed to create item")
		return
	}

	if req.Type == ItemDirectory {
		err = os.MkdirAll(target, 0o755)
	} else {
		// O_EXCL refuses to follow a symlink planted at target.
		var file *os.File
		file, err = os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		switch {
		case err == nil:
			err = file.Close()
		case errors.Is(err, fs.ErrExist):
			err = nil
		}
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, f.logger, http.StatusNotFound, "Directory not found")
			return
		}
		f.logger.Error("failed to create item", zap.String("path", target), zap.Error(err))
		writeError(w, f.logger, http.StatusInternalServerError, "Failed to create item")
		return
	}

	f.logger.Info("item created", zap.String("path", target), zap.String("type", req.Type))
	writeJSON(w, f.logger, http.StatusOK, SuccessResponse{Success: true})
}

// DeleteItemHandler handles DELETE /files.
//
// Request: {"path"}. Directories are removed recursively. The sandbox root
// itself cannot be deleted.
func (f *Files) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	var req DeleteItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, f.logger, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Path == "" {
		writeError(w, f.logger, http.StatusBadRequest, "Path is required")
		return
	}

	target, err := f.guard.Resolve(req.Path)
	if err != nil {
		writeDomainError(w, f.logger, err, "Failed to delete item")
		return
	}
	if target == f.guard.Root() {
		writeError(w, f.logger, http.StatusForbidden, "Access to this path is not allowed")
		return
	}

	info, err := os.Lstat(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, f.logger, http.StatusNotFound, "Item not found")
			return
		}
		f.logger.Error("failed to stat item", zap.String("path", target), zap.Error(err))
		writeError(w, f.logger, http.StatusInternalServerError, "Failed to delete item")
		return
	}

	if info.IsDir() {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		f.logger.Error("failed to delete item", zap.String("path", target), zap.Error(err))
		writeError(w, f.logger, http.StatusInternalServerError, "Failed to delete item")
		return
	}

	f.logger.Info("item deleted", zap.String("path", target))
	writeJSON(w, f.logger, http.StatusOK, SuccessResponse{Success: true})
}
