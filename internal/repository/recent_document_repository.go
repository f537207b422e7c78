package repository

import (
	"context"
	"fmt"

	"github.com/jbweber/homelab/netmap/internal/datastore"
	"github.com/jbweber/homelab/netmap/internal/domain"
)

// MaxRecentDocuments is how many history rows Record keeps.
const MaxRecentDocuments = 50

// RecentDocumentRepository defines domain-specific operations for the
// recently opened and saved documents history
type RecentDocumentRepository interface {
	Repository[datastore.RecentDocument, int64]
	FindByPath(ctx context.Context, path string) (datastore.RecentDocument, error)
	FindRecent(ctx context.Context, limit int) ([]datastore.RecentDocument, error)
	Record(ctx context.Context, doc domain.RecentDocument) error
	Pruner
}

// recentDocumentRepositoryImpl implements RecentDocumentRepository
type recentDocumentRepositoryImpl struct {
	*DatastoreRepository[datastore.RecentDocument, int64]
}

// NewRecentDocumentRepository creates a new recent document repository
func NewRecentDocumentRepository(ds *datastore.Datastore) RecentDocumentRepository {
	return &recentDocumentRepositoryImpl{
		DatastoreRepository: NewDatastoreRepository[datastore.RecentDocument, int64](ds),
	}
}

// Save creates or refreshes the history row for the document's path
func (r *recentDocumentRepositoryImpl) Save(ctx context.Context, doc datastore.RecentDocument) (datastore.RecentDocument, error) {
	if doc.Path == "" {
		return datastore.RecentDocument{}, fmt.Errorf("document path is required: %w", ErrInvalidEntity)
	}
	saved, err := r.ds.UpsertRecentDocument(ctx, doc)
	if err != nil {
		return datastore.RecentDocument{}, fmt.Errorf("failed to save recent document: %w", err)
	}
	return saved, nil
}

// FindByID retrieves a history row by its ID
func (r *recentDocumentRepositoryImpl) FindByID(ctx context.Context, id int64) (datastore.RecentDocument, error) {
	doc, err := r.ds.GetRecentDocument(ctx, id)
	if err != nil {
		return datastore.RecentDocument{}, fmt.Errorf("failed to find recent document: %w", err)
	}
	if doc == nil {
		return datastore.RecentDocument{}, fmt.Errorf("recent document with ID %d: %w", id, ErrNotFound)
	}
	return *doc, nil
}

// FindAll retrieves the whole history, most recent first
func (r *recentDocumentRepositoryImpl) FindAll(ctx context.Context) ([]datastore.RecentDocument, error) {
	return r.FindRecent(ctx, 0)
}

// DeleteByID removes a history row by its ID
func (r *recentDocumentRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	exists, err := r.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("recent document with ID %d: %w", id, ErrNotFound)
	}
	if err := r.ds.DeleteRecentDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete recent document: %w", err)
	}
	return nil
}

// ExistsByID checks if a history row exists by its ID
func (r *recentDocumentRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	doc, err := r.ds.GetRecentDocument(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to check recent document existence: %w", err)
	}
	return doc != nil, nil
}

// FindByPath retrieves the history row for a path
func (r *recentDocumentRepositoryImpl) FindByPath(ctx context.Context, path string) (datastore.RecentDocument, error) {
	doc, err := r.ds.GetRecentDocumentByPath(ctx, path)
	if err != nil {
		return datastore.RecentDocument{}, fmt.Errorf("failed to find recent document by path: %w", err)
	}
	if doc == nil {
		return datastore.RecentDocument{}, fmt.Errorf("recent document with path %s: %w", path, ErrNotFound)
	}
	return *doc, nil
}

// FindRecent returns up to limit history rows, most recent first. A limit
// of zero returns every row.
func (r *recentDocumentRepositoryImpl) FindRecent(ctx context.Context, limit int) ([]datastore.RecentDocument, error) {
	docs, err := r.ds.ListRecentDocuments(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent documents: %w", err)
	}
	return docs, nil
}

// Record stores a load or save in the history and trims it to MaxRecentDocuments.
func (r *recentDocumentRepositoryImpl) Record(ctx context.Context, doc domain.RecentDocument) error {
	_, err := r.Save(ctx, datastore.RecentDocument{
		Path:            doc.Path,
		LastAction:      doc.LastAction,
		DeviceCount:     doc.DeviceCount,
		ConnectionCount: doc.ConnectionCount,
		AccessedAt:      doc.AccessedAt,
	})
	if err != nil {
		return err
	}
	_, err = r.Prune(ctx, MaxRecentDocuments)
	return err
}

// Prune keeps the newest keep rows
func (r *recentDocumentRepositoryImpl) Prune(ctx context.Context, keep int) (int64, error) {
	removed, err := r.ds.PruneRecentDocuments(ctx, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune recent documents: %w", err)
	}
	return removed, nil
}
