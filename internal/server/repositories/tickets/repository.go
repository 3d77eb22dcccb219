// Package tickets persists ticket records. The Postgres implementation is used
// in production; Memory backs tests and single-process deployments.
package tickets

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ticketvault/internal/server/models"
)

// MaxBatchDelete is the largest id set BatchDelete accepts in one call.
const MaxBatchDelete = 25

// Repository is the ticket store adapter.
//
// Get returns an error matching common.ErrNotFound when the id is absent.
// Delete is conditional: it reports whether this call removed the record, so
// concurrent deletes of the same id have exactly one winner. Permission
// failures of the backing store wrap common.ErrPermissionDenied.
type Repository interface {
	Put(ctx context.Context, t *models.Ticket) error
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Delete(ctx context.Context, id string) (bool, error)
	BatchDelete(ctx context.Context, ids []string) error
	ScanByExpiry(ctx context.Context, before int64) ([]string, error)
}

func checkBatch(ids []string) error {
	if len(ids) > MaxBatchDelete {
		return fmt.Errorf("batch delete of %d ids exceeds limit of %d", len(ids), MaxBatchDelete)
	}
	return nil
}
