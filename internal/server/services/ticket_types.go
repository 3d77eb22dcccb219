package services

import (
	"context"

	"github.com/dmitrijs2005/ticketvault/internal/cryptox"
)

// Cipher is the encryption engine used for server-managed tickets.
type Cipher interface {
	Encrypt(plaintext, password string) (*cryptox.Sealed, error)
	Decrypt(s cryptox.Sealed, password string) (string, error)
}

// Runner executes detached background work (webhooks, blob cleanup).
type Runner interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context) error)
}

// TicketOptions are the settings shared by both create variants.
type TicketOptions struct {
	ExpiresMinutes int
	OneTime        bool
	// IPAddresses restricts Get and Decrypt to these caller addresses.
	// Empty means unrestricted.
	IPAddresses []string
}

// CreateRequest is either a ServerManagedTicket or a ClientManagedTicket.
type CreateRequest interface {
	options() TicketOptions
}

// ServerManagedTicket asks the service to encrypt Text under Password.
type ServerManagedTicket struct {
	TicketOptions
	Text     string
	Password string
}

// ClientManagedTicket carries ciphertext the caller produced itself. The
// service stores it unmodified and hands IV and AuthTag back on read.
type ClientManagedTicket struct {
	TicketOptions
	Ciphertext string
	IV         string
	AuthTag    string
}

func (r ServerManagedTicket) options() TicketOptions { return r.TicketOptions }
func (r ClientManagedTicket) options() TicketOptions { return r.TicketOptions }

type CreateResult struct {
	ID        string
	ExpiresAt int64
}

// TicketView is what callers get back from Get, Decrypt and Delete.
//
// Text is plaintext for server-managed tickets returned by Decrypt and Delete,
// and the stored ciphertext otherwise. Get does not load offloaded payloads:
// for those Text is empty and Offloaded is set. IV and AuthTag are only set for
// client-managed tickets. On Decrypt, Expired mirrors OneTime: it tells the
// caller this read consumed the ticket.
type TicketView struct {
	ID         string
	Text       string
	CreatedAt  int64
	ExpiresAt  int64
	OneTime    bool
	ClientMode bool
	Offloaded  bool
	Expired    bool
	IV         string
	AuthTag    string
}

// TicketConfig holds the tunables of TicketService.
type TicketConfig struct {
	// InlineTextLimit is the largest ciphertext (bytes of encoded text) kept
	// in the ticket record; anything longer goes to the blob store.
	InlineTextLimit int
	// MaxExpiresMinutes caps ExpiresMinutes when positive.
	MaxExpiresMinutes int
}

// DefaultInlineTextLimit keeps a ticket record under a 200 KB item limit.
const DefaultInlineTextLimit = 199000
