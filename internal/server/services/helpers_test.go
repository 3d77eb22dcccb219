package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/ticketvault/internal/clockx"
	"github.com/dmitrijs2005/ticketvault/internal/cryptox"
	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/blobstore"
	"github.com/dmitrijs2005/ticketvault/internal/server/models"
	"github.com/dmitrijs2005/ticketvault/internal/server/notify"
	"github.com/dmitrijs2005/ticketvault/internal/server/repositories/tickets"
)

// -------- test fakes --------

// inlineRunner runs background work synchronously so tests can assert on
// its effects right after the call returns.
type inlineRunner struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (r *inlineRunner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	err := fn(context.WithoutCancel(ctx))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

func (r *inlineRunner) ran(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) modes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Mode
	}
	return out
}

type failingRepo struct {
	tickets.Repository
	putErr    error
	getErr    error
	deleteErr error
	batchErr  error
	scanErr   error
}

func (f *failingRepo) Put(ctx context.Context, t *models.Ticket) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Repository.Put(ctx, t)
}

func (f *failingRepo) Get(ctx context.Context, id string) (*models.Ticket, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Repository.Get(ctx, id)
}

func (f *failingRepo) Delete(ctx context.Context, id string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.Repository.Delete(ctx, id)
}

func (f *failingRepo) BatchDelete(ctx context.Context, ids []string) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	return f.Repository.BatchDelete(ctx, ids)
}

func (f *failingRepo) ScanByExpiry(ctx context.Context, before int64) ([]string, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.Repository.ScanByExpiry(ctx, before)
}

type failingBlobs struct {
	blobstore.Store
	putErr    error
	getErr    error
	deleteErr error
	batchErr  error
}

func (f *failingBlobs) Put(ctx context.Context, key, content string) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Store.Put(ctx, key, content)
}

func (f *failingBlobs) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingBlobs) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, key)
}

func (f *failingBlobs) BatchDelete(ctx context.Context, keys []string) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	return f.Store.BatchDelete(ctx, keys)
}

// -------- fixture --------

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *TicketService
	sweep    *SweepService
	repo     *tickets.MemoryRepository
	blobs    *blobstore.MemoryStore
	clock    *clockx.Fake
	runner   *inlineRunner
	notifier *recordingNotifier
}

func testCipher() *cryptox.Engine {
	return cryptox.NewEngine(cryptox.Config{
		Algorithm: cryptox.AlgAES256GCM,
		KDF:       cryptox.KDFParams{Time: 1, MemoryKiB: 1024, Threads: 1},
	})
}

func newFixture(t *testing.T, cfg TicketConfig) *fixture {
	t.Helper()
	f := &fixture{
		repo:     tickets.NewMemoryRepository(),
		blobs:    blobstore.NewMemoryStore(),
		clock:    clockx.NewFake(epoch),
		runner:   &inlineRunner{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewTicketService(f.repo, f.blobs, testCipher(), f.notifier, f.runner, f.clock, logging.Nop(), cfg)
	f.sweep = NewSweepService(f.repo, f.blobs, f.clock, logging.Nop(), SweepConfig{Concurrency: 4})
	return f
}

func serverTicket(text, password string, minutes int) ServerManagedTicket {
	return ServerManagedTicket{
		TicketOptions: TicketOptions{ExpiresMinutes: minutes},
		Text:          text,
		Password:      password,
	}
}
