package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jbweber/homelab/netmap/internal/datastore"
)

// DatastoreRepository provides the shared base for repositories backed by
// datastore.Datastore. Concrete repositories embed it and override the
// operations their entity supports.
type DatastoreRepository[T any, ID comparable] struct {
	ds     *datastore.Datastore
	entity reflect.Type
}

// NewDatastoreRepository creates a new generic repository
func NewDatastoreRepository[T any, ID comparable](ds *datastore.Datastore) *DatastoreRepository[T, ID] {
	var zero T
	return &DatastoreRepository[T, ID]{
		ds:     ds,
		entity: reflect.TypeOf(zero),
	}
}

// Save is unsupported unless the concrete repository overrides it
func (r *DatastoreRepository[T, ID]) Save(ctx context.Context, entity T) (T, error) {
	return entity, r.unsupported("Save")
}

// FindByID is unsupported unless the concrete repository overrides it
func (r *DatastoreRepository[T, ID]) FindByID(ctx context.Context, id ID) (T, error) {
	var zero T
	return zero, r.unsupported("FindByID")
}

// FindAll is unsupported unless the concrete repository overrides it
func (r *DatastoreRepository[T, ID]) FindAll(ctx context.Context) ([]T, error) {
	return nil, r.unsupported("FindAll")
}

// DeleteByID is unsupported unless the concrete repository overrides it
func (r *DatastoreRepository[T, ID]) DeleteByID(ctx context.Context, id ID) error {
	return r.unsupported("DeleteByID")
}

// ExistsByID is unsupported unless the concrete repository overrides it
func (r *DatastoreRepository[T, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	return false, r.unsupported("ExistsByID")
}

// GetDatastore returns the underlying datastore (useful for specific implementations)
func (r *DatastoreRepository[T, ID]) GetDatastore() *datastore.Datastore {
	return r.ds
}

func (r *DatastoreRepository[T, ID]) unsupported(op string) error {
	return fmt.Errorf("%s not implemented for %s: %w", op, r.entity.Name(), ErrOperationNotSupported)
}
