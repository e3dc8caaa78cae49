package repomanager

import (
	"context"

	"github.com/dmitrijs2005/astroprofile/internal/server/repositories/users"
)

// RepositoryManager owns the storage backend selected at startup.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Close() error
}

// New picks the backend: an empty DSN keeps everything in memory,
// anything else is treated as a PostgreSQL connection string.
func New(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewInMemoryRepositoryManager(), nil
	}
	return OpenPostgres(ctx, dsn)
}
