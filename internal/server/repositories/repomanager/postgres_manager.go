// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/ticketvault/internal/dbx"
	"github.com/dmitrijs2005/ticketvault/internal/server/migrations"
	"github.com/dmitrijs2005/ticketvault/internal/server/repositories/tickets"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

// Tickets returns a tickets.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Tickets(db dbx.DBTX) tickets.Repository {
	return tickets.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations with goose.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dbx.DriverPgx); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// MemoryRepositoryManager hands out one shared in-memory repository and has
// no schema to migrate.
type MemoryRepositoryManager struct {
	repo *tickets.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: tickets.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Tickets(dbx.DBTX) tickets.Repository { return m.repo }

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }
