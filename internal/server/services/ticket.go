package services

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/dmitrijs2005/ticketvault/internal/clockx"
	"github.com/dmitrijs2005/ticketvault/internal/common"
	"github.com/dmitrijs2005/ticketvault/internal/cryptox"
	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/blobstore"
	"github.com/dmitrijs2005/ticketvault/internal/server/models"
	"github.com/dmitrijs2005/ticketvault/internal/server/notify"
	"github.com/dmitrijs2005/ticketvault/internal/server/repositories/tickets"
)

// TicketService implements the ticket lifecycle: create, preview, decrypt
// and delete. Every error it returns belongs to the common taxonomy.
type TicketService struct {
	repo     tickets.Repository
	blobs    blobstore.Store
	cipher   Cipher
	notifier notify.Notifier
	runner   Runner
	clock    clockx.Clock
	logger   logging.Logger
	cfg      TicketConfig
	newID    func() (string, error)
}

func NewTicketService(
	repo tickets.Repository,
	blobs blobstore.Store,
	cipher Cipher,
	notifier notify.Notifier,
	runner Runner,
	clock clockx.Clock,
	logger logging.Logger,
	cfg TicketConfig,
) *TicketService {
	if cfg.InlineTextLimit <= 0 {
		cfg.InlineTextLimit = DefaultInlineTextLimit
	}
	return &TicketService{
		repo:     repo,
		blobs:    blobs,
		cipher:   cipher,
		notifier: notifier,
		runner:   runner,
		clock:    clock,
		logger:   logger.With("module", "tickets"),
		cfg:      cfg,
		newID:    common.NewTicketID,
	}
}

func (s *TicketService) validate(req CreateRequest) error {
	opts := req.options()
	if opts.ExpiresMinutes <= 0 {
		return common.Validation("expires must be a positive number of minutes")
	}
	if s.cfg.MaxExpiresMinutes > 0 && opts.ExpiresMinutes > s.cfg.MaxExpiresMinutes {
		return common.Validation(fmt.Sprintf("expires must not exceed %d minutes", s.cfg.MaxExpiresMinutes))
	}
	for _, ip := range opts.IPAddresses {
		if _, err := netip.ParseAddr(ip); err != nil {
			return common.Validation(fmt.Sprintf("invalid ip address %q", ip))
		}
	}

	switch r := req.(type) {
	case ServerManagedTicket:
		if r.Text == "" || r.Password == "" {
			return common.Validation("text and password are required")
		}
	case ClientManagedTicket:
		if r.Ciphertext == "" {
			return common.Validation("ciphertext is required in client mode")
		}
	default:
		return common.Validation("unsupported create request")
	}
	return nil
}

// Create encrypts (server mode) and stores a new ticket.
func (s *TicketService) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, common.Wrap(common.CodeInternal, "generate ticket id", err)
	}

	opts := req.options()
	t := &models.Ticket{
		ID:          id,
		OneTime:     opts.OneTime,
		IPAddresses: opts.IPAddresses,
	}

	switch r := req.(type) {
	case ServerManagedTicket:
		sealed, err := s.cipher.Encrypt(r.Text, r.Password)
		if err != nil {
			return nil, s.cipherErr("encrypt ticket", err)
		}
		t.Text, t.IV, t.AuthTag, t.Algorithm = sealed.Ciphertext, sealed.IV, sealed.AuthTag, sealed.Algorithm
	case ClientManagedTicket:
		t.ClientMode = true
		t.Text, t.IV, t.AuthTag = r.Ciphertext, r.IV, r.AuthTag
	}

	now := clockx.Unix(s.clock)
	t.CreatedAt = now
	t.ExpiresAt = now + int64(opts.ExpiresMinutes)*60

	if len(t.Text) > s.cfg.InlineTextLimit {
		if err := s.blobs.Put(ctx, blobstore.Key(id), t.Text); err != nil {
			return nil, common.FromStore("store ticket payload", err)
		}
		t.Text = ""
		t.Offloaded = true
	}

	if err := s.repo.Put(ctx, t); err != nil {
		if t.Offloaded {
			s.runner.Go(ctx, "orphan-blob-cleanup", func(ctx context.Context) error {
				return s.blobs.Delete(ctx, blobstore.Key(id))
			})
		}
		return nil, common.FromStore("store ticket", err)
	}

	s.logger.Info(ctx, "ticket created", "ticket_id", id, "one_time", t.OneTime,
		"client_mode", t.ClientMode, "offloaded", t.Offloaded, "expires_at", t.ExpiresAt)
	s.notify(ctx, notify.ModeEncrypt)

	return &CreateResult{ID: id, ExpiresAt: t.ExpiresAt}, nil
}

// Get returns a preview of the stored ticket without decrypting it. An
// expired ticket is removed and reported as found=false with a nil error.
func (s *TicketService) Get(ctx context.Context, id, callerIP string) (*TicketView, bool, error) {
	t, err := s.fetch(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if err := checkIP(t, callerIP); err != nil {
		return nil, false, err
	}
	if t.ExpiredAt(clockx.Unix(s.clock)) {
		s.purge(ctx, t)
		return nil, false, nil
	}

	v := view(t, t.Text)
	v.Offloaded = t.Offloaded
	return v, true, nil
}

// Decrypt returns the plaintext of a server-managed ticket, or the stored
// ciphertext with IV and AuthTag of a client-managed one. A one-time ticket
// is consumed by the first successful call; later calls get NotFound.
func (s *TicketService) Decrypt(ctx context.Context, id, password, callerIP string) (*TicketView, error) {
	t, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkIP(t, callerIP); err != nil {
		return nil, err
	}
	if t.ExpiredAt(clockx.Unix(s.clock)) {
		s.purge(ctx, t)
		return nil, common.NotFound("ticket not found")
	}

	text, err := s.open(ctx, t, password)
	if err != nil {
		return nil, err
	}

	if t.OneTime {
		removed, err := s.repo.Delete(ctx, t.ID)
		if err != nil {
			return nil, common.FromStore("consume ticket", err)
		}
		if !removed {
			return nil, common.NotFound("ticket not found")
		}
		if t.Offloaded {
			s.runner.Go(ctx, "consumed-blob-cleanup", func(ctx context.Context) error {
				return s.blobs.Delete(ctx, blobstore.Key(t.ID))
			})
		}
		s.logger.Info(ctx, "one-time ticket consumed", "ticket_id", t.ID)
	}

	s.notify(ctx, notify.ModeDecrypt)

	v := view(t, text)
	v.Expired = t.OneTime
	return v, nil
}

// Delete removes a ticket after proving knowledge of its password, and
// returns its content as a final read. Client-managed tickets need no
// password.
func (s *TicketService) Delete(ctx context.Context, id, password string) (*TicketView, error) {
	t, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.ExpiredAt(clockx.Unix(s.clock)) {
		s.purge(ctx, t)
		return nil, common.NotFound("ticket not found")
	}

	text, err := s.open(ctx, t, password)
	if err != nil {
		return nil, err
	}

	if t.Offloaded {
		if err := s.blobs.Delete(ctx, blobstore.Key(t.ID)); err != nil {
			s.logger.Warn(ctx, "ticket payload delete failed", "ticket_id", t.ID, "error", err)
		}
	}

	removed, err := s.repo.Delete(ctx, t.ID)
	if err != nil {
		return nil, common.FromStore("delete ticket", err)
	}
	if !removed {
		return nil, common.NotFound("ticket not found")
	}

	s.logger.Info(ctx, "ticket deleted", "ticket_id", t.ID)
	return view(t, text), nil
}

func (s *TicketService) fetch(ctx context.Context, id string) (*models.Ticket, error) {
	if id == "" {
		return nil, common.NotFound("ticket not found")
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, common.FromStore("load ticket", err)
	}
	return t, nil
}

// open loads the ciphertext (inline or offloaded) and, for server-managed
// tickets, decrypts it.
func (s *TicketService) open(ctx context.Context, t *models.Ticket, password string) (string, error) {
	payload := t.Text
	if t.Offloaded {
		p, err := s.blobs.Get(ctx, blobstore.Key(t.ID))
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", common.NotFound("ticket not found")
		}
		if err != nil {
			return "", common.FromStore("load ticket payload", err)
		}
		payload = p
	}

	if t.ClientMode {
		return payload, nil
	}

	plain, err := s.cipher.Decrypt(cryptox.Sealed{
		Ciphertext: payload,
		IV:         t.IV,
		AuthTag:    t.AuthTag,
		Algorithm:  t.Algorithm,
	}, password)
	if err != nil {
		return "", s.cipherErr("decrypt ticket", err)
	}
	return plain, nil
}

// purge deletes an expired ticket and its payload. Failures are logged; the
// sweeper catches whatever is left behind.
func (s *TicketService) purge(ctx context.Context, t *models.Ticket) {
	if _, err := s.repo.Delete(ctx, t.ID); err != nil {
		s.logger.Warn(ctx, "expired ticket delete failed", "ticket_id", t.ID, "error", err)
	}
	if t.Offloaded {
		if err := s.blobs.Delete(ctx, blobstore.Key(t.ID)); err != nil {
			s.logger.Warn(ctx, "expired ticket payload delete failed", "ticket_id", t.ID, "error", err)
		}
	}
}

func (s *TicketService) notify(ctx context.Context, mode string) {
	s.runner.Go(ctx, "webhook-"+mode, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, notify.Event{Mode: mode})
	})
}

// cipherErr keeps authentication and configuration failures as they are and
// turns anything else into an internal error.
func (s *TicketService) cipherErr(msg string, err error) error {
	switch common.CodeOf(err) {
	case common.CodeAuthentication, common.CodeConfiguration, common.CodeValidation:
		return err
	default:
		return common.Wrap(common.CodeInternal, msg, err)
	}
}

func checkIP(t *models.Ticket, callerIP string) error {
	if len(t.IPAddresses) == 0 {
		return nil
	}
	caller, err := netip.ParseAddr(callerIP)
	if err != nil {
		return common.Forbidden("caller address not allowed")
	}
	caller = caller.Unmap()
	for _, allowed := range t.IPAddresses {
		a, err := netip.ParseAddr(allowed)
		if err == nil && a.Unmap() == caller {
			return nil
		}
	}
	return common.Forbidden("caller address not allowed")
}

func view(t *models.Ticket, text string) *TicketView {
	v := &TicketView{
		ID:         t.ID,
		Text:       text,
		CreatedAt:  t.CreatedAt,
		ExpiresAt:  t.ExpiresAt,
		OneTime:    t.OneTime,
		ClientMode: t.ClientMode,
	}
	if t.ClientMode {
		v.IV, v.AuthTag = t.IV, t.AuthTag
	}
	return v
}
