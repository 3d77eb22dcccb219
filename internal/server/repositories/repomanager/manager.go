package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ticketvault/internal/dbx"
	"github.com/dmitrijs2005/ticketvault/internal/server/repositories/tickets"
)

// RepositoryManager vends ticket repositories for a storage backend and
// prepares that backend's schema.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Tickets(db dbx.DBTX) tickets.Repository
}
