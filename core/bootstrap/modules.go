package bootstrap

import "context"

// Storage is the application storage handed to seeders.
type Storage any

// Seeder loads reference data into a storage implementation.
type Seeder interface {
	Seed(ctx context.Context, storage Storage) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, storage Storage) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, storage Storage) error {
	return f(ctx, storage)
}

// StorageFactory builds the application storage. db is nil when the
// pipeline ran without a database.
type StorageFactory func(ctx context.Context, db any) (Storage, error)
