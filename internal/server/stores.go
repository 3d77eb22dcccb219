package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ticketvault/internal/dbx"
	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/blobstore"
	"github.com/dmitrijs2005/ticketvault/internal/server/config"
	"github.com/dmitrijs2005/ticketvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ticketvault/internal/server/repositories/tickets"
)

const dbPingTimeout = 5 * time.Second

// Stores bundles the ticket and blob stores selected by configuration.
type Stores struct {
	Tickets tickets.Repository
	Blobs   blobstore.Store

	db      *sql.DB
	manager repomanager.RepositoryManager
	logger  logging.Logger
}

// OpenStores connects the configured backends. Close releases them.
func OpenStores(ctx context.Context, c *config.Config, l logging.Logger) (*Stores, error) {
	s := &Stores{logger: l.With("module", "stores")}

	switch c.TicketStore {
	case config.StorePostgres:
		db, err := dbx.Open(ctx, dbx.DriverPgx, c.DatabaseDSN, dbPingTimeout)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		s.db = db
		s.manager = repomanager.NewPostgresRepositoryManager()
	case config.StoreMemory:
		s.manager = repomanager.NewMemoryRepositoryManager()
	default:
		return nil, fmt.Errorf("unknown ticket store %q", c.TicketStore)
	}
	s.Tickets = s.manager.Tickets(s.db)

	blobs, err := openBlobs(ctx, c, s.logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Blobs = blobs

	s.logger.Info(ctx, "stores ready", "tickets", c.TicketStore, "blobs", c.BlobStore)
	return s, nil
}

func openBlobs(ctx context.Context, c *config.Config, l logging.Logger) (blobstore.Store, error) {
	switch c.BlobStore {
	case config.BlobS3:
		st, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			UsePathStyle: c.S3UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return st, nil
	case config.BlobFile:
		st, err := blobstore.NewFileStore(c.BlobDir)
		if err != nil {
			return nil, fmt.Errorf("blob dir init error: %w", err)
		}
		l.Info(ctx, "file blob store", "root", st.Root())
		return st, nil
	case config.BlobMemory:
		return blobstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob store %q", c.BlobStore)
	}
}

// Migrate brings the ticket store schema up to date. It is a no-op for the
// in-memory store.
func (s *Stores) Migrate(ctx context.Context) error {
	if err := s.manager.RunMigrations(ctx, s.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
