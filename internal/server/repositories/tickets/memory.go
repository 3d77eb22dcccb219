package tickets

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/ticketvault/internal/common"
	"github.com/dmitrijs2005/ticketvault/internal/server/models"
)

// MemoryRepository is a process-local Repository guarded by a mutex.
// Records are copied on the way in and out.
type MemoryRepository struct {
	mu   sync.Mutex
	data map[string]models.Ticket
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string]models.Ticket)}
}

func clone(t models.Ticket) *models.Ticket {
	t.IPAddresses = slices.Clone(t.IPAddresses)
	return &t
}

func (r *MemoryRepository) Put(_ context.Context, t *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[t.ID] = *clone(*t)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[id]
	if !ok {
		return nil, common.NotFound("ticket not found")
	}
	return clone(t), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return false, nil
	}
	delete(r.data, id)
	return true, nil
}

func (r *MemoryRepository) BatchDelete(_ context.Context, ids []string) error {
	if err := checkBatch(ids); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.data, id)
	}
	return nil
}

func (r *MemoryRepository) ScanByExpiry(_ context.Context, before int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, t := range r.data {
		if t.ExpiresAt < before {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Len returns the number of stored records.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}
