package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/catalog"
	"github.com/jbweber/homelab/netmap/internal/configstore"
	"github.com/jbweber/homelab/netmap/internal/repository"
	"github.com/jbweber/homelab/netmap/internal/sandbox"
	"github.com/jbweber/homelab/netmap/internal/topology"
	"github.com/jbweber/homelab/netmap/internal/workspace"
)

// maxBodyBytes bounds request bodies; documents are small.
const maxBodyBytes = 8 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the body of mutations that return nothing else
type SuccessResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	writeJSON(w, logger, status, ErrorResponse{Error: message})
}

// decodeJSON reads a JSON request body into v. An empty body is an error.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("request body is required")
	}
	return err
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sandbox.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, configstore.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, topology.ErrDeviceNotFound),
		errors.Is(err, topology.ErrConnectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, topology.ErrInterfaceInUse),
		errors.Is(err, topology.ErrDuplicateID),
		errors.Is(err, workspace.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, configstore.ErrInvalidDocument),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrUnknownCategory),
		errors.Is(err, topology.ErrInvalidLineType),
		errors.Is(err, topology.ErrSameDevice),
		errors.Is(err, topology.ErrInvalidInput),
		errors.Is(err, topology.ErrNoDrag),
		errors.Is(err, workspace.ErrNoDocument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeDomainError writes err with its mapped status. Server errors get the
// generic fallback message so internal paths are not leaked.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusForbidden:
		message = "Access to this path is not allowed"
	case http.StatusInternalServerError:
		logger.Error(fallback, zap.Error(err))
		message = fallback
	}
	writeError(w, logger, status, message)
}
