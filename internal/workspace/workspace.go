// Package workspace is the editing session: one editor, the path of the
// document it edits, and the sequencing of loads and saves.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jbweber/homelab/netmap/internal/domain"
	"github.com/jbweber/homelab/netmap/internal/notify"
	"github.com/jbweber/homelab/netmap/internal/topology"
)

// Notification messages for loads and saves.
const (
	MsgSaved      = "Configuration saved successfully"
	MsgSaveFailed = "Error saving configuration"
	MsgLoadFailed = "Error loading configuration"
)

var (
	// ErrNoDocument is returned when saving before any document was opened
	ErrNoDocument = errors.New("no document open")

	// ErrSuperseded is returned by Open when a newer Open started while it was loading
	ErrSuperseded = errors.New("load superseded by a newer open")
)

// DocumentStore reads and writes config documents.
type DocumentStore interface {
	Load(ctx context.Context, path string) (domain.Document, error)
	Save(ctx context.Context, path string, doc domain.Document) error
}

// PathResolver validates user supplied paths.
type PathResolver interface {
	Resolve(path string) (string, error)
}

// HistoryRecorder remembers which documents were opened and saved.
type HistoryRecorder interface {
	Record(ctx context.Context, doc domain.RecentDocument) error
}

// Options configures a Workspace
type Options struct {
	Files    DocumentStore
	Paths    PathResolver
	Notifier notify.Notifier
	History  HistoryRecorder // optional
	Logger   *zap.Logger
	Now      func() time.Time
}

// Workspace owns the editor of the open document.
type Workspace struct {
	editor   *topology.Editor
	files    DocumentStore
	paths    PathResolver
	notifier notify.Notifier
	history  HistoryRecorder
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	path       string
	generation uint64
}

// New creates a workspace with an empty document.
func New(opts Options) *Workspace {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Workspace{
		editor:   topology.NewEditor(topology.NewStore(), opts.Notifier),
		files:    opts.Files,
		paths:    opts.Paths,
		notifier: opts.Notifier,
		history:  opts.History,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// Editor returns the editor of the open document.
func (w *Workspace) Editor() *topology.Editor { return w.editor }

// Path returns the resolved path of the open document, or "".
func (w *Workspace) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Open loads the document at path into the editor. Opens are numbered: when
// a newer Open starts before this one finishes loading, this result is
// discarded and ErrSuperseded returned.
func (w *Workspace) Open(ctx context.Context, path string) (domain.Document, error) {
	resolved, err := w.paths.Resolve(path)
	if err != nil {
		return domain.Document{}, err
	}

	w.mu.Lock()
	w.generation++
	gen := w.generation
	w.mu.Unlock()

	doc, err := w.files.Load(ctx, resolved)
	if err != nil {
		w.logger.Error("failed to load document", zap.String("path", resolved), zap.Error(err))
		w.notifier.Notify(notify.KindError, MsgLoadFailed)
		return domain.Document{}, err
	}

	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		w.logger.Debug("discarding superseded load", zap.String("path", resolved))
		return domain.Document{}, fmt.Errorf("%w: %s", ErrSuperseded, resolved)
	}
	w.editor.Reset(doc)
	w.path = resolved
	w.mu.Unlock()

	w.logger.Info("document opened",
		zap.String("path", resolved),
		zap.Int("devices", len(doc.Devices)),
		zap.Int("connections", len(doc.Connections)))
	w.record(ctx, resolved, "load", doc)
	return doc, nil
}

// Save writes the editor's document back to its path. A clean document is
// not rewritten and reports false. The unsaved-changes flag is cleared only
// when the write succeeds and nothing changed meanwhile.
func (w *Workspace) Save(ctx context.Context) (bool, error) {
	w.mu.Lock()
	path := w.path
	w.mu.Unlock()

	if path == "" {
		return false, ErrNoDocument
	}

	store := w.editor.Store()
	if !store.Dirty() {
		return false, nil
	}
	doc := store.Document()

	if err := w.files.Save(ctx, path, doc); err != nil {
		w.logger.Error("failed to save document", zap.String("path", path), zap.Error(err))
		w.notifier.Notify(notify.KindError, MsgSaveFailed)
		return false, err
	}

	store.MarkSavedIf(doc)
	w.notifier.Notify(notify.KindSuccess, MsgSaved)
	w.logger.Info("document saved",
		zap.String("path", path),
		zap.Int("devices", len(doc.Devices)),
		zap.Int("connections", len(doc.Connections)))
	w.record(ctx, path, "save", doc)
	return true, nil
}

// SaveDocument writes doc to path without touching the open document, as
// the plain save-config endpoint does.
func (w *Workspace) SaveDocument(ctx context.Context, path string, doc domain.Document) (string, error) {
	resolved, err := w.paths.Resolve(path)
	if err != nil {
		return "", err
	}
	if err := w.files.Save(ctx, resolved, doc); err != nil {
		w.logger.Error("failed to save document", zap.String("path", resolved), zap.Error(err))
		return "", err
	}
	w.record(ctx, resolved, "save", doc)
	return resolved, nil
}

// LoadDocument reads the document at path without opening it in the editor.
func (w *Workspace) LoadDocument(ctx context.Context, path string) (domain.Document, error) {
	resolved, err := w.paths.Resolve(path)
	if err != nil {
		return domain.Document{}, err
	}
	doc, err := w.files.Load(ctx, resolved)
	if err != nil {
		return domain.Document{}, err
	}
	w.record(ctx, resolved, "load", doc)
	return doc, nil
}

func (w *Workspace) record(ctx context.Context, path, action string, doc domain.Document) {
	if w.history == nil {
		return
	}
	err := w.history.Record(ctx, domain.RecentDocument{
		Path:            path,
		LastAction:      action,
		DeviceCount:     len(doc.Devices),
		ConnectionCount: len(doc.Connections),
		AccessedAt:      w.now(),
	})
	if err != nil {
		w.logger.Warn("failed to record document history", zap.String("path", path), zap.Error(err))
	}
}
