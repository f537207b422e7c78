package repository

import "context"

// Repository is the CRUD surface shared by the sqlite-backed repositories.
// Lookups that miss return ErrNotFound.
type Repository[T any, ID comparable] interface {
	Save(ctx context.Context, entity T) (T, error)
	FindByID(ctx context.Context, id ID) (T, error)
	FindAll(ctx context.Context) ([]T, error)
	DeleteByID(ctx context.Context, id ID) error
	ExistsByID(ctx context.Context, id ID) (bool, error)
}

// Pruner trims a table down to its newest rows and reports how many it removed.
type Pruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}
