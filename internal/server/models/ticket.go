// Package models defines server-side data models persisted in the ticket store.
package models

// Ticket is one stored secret. Text holds base64 ciphertext, or is empty when
// the ciphertext was offloaded to blob storage.
type Ticket struct {
	ID   string
	Text string
	// IV is base64(salt || nonce) for server-managed tickets and whatever the
	// client supplied otherwise.
	IV      string
	AuthTag string
	// Algorithm names the cipher that sealed Text; empty for client-managed tickets.
	Algorithm string

	// ExpiresAt and CreatedAt are Unix seconds.
	ExpiresAt int64
	CreatedAt int64

	OneTime     bool
	IPAddresses []string
	ClientMode  bool
	Offloaded   bool
}

// ExpiredAt reports whether the ticket is past its expiry at now (Unix
// seconds). A ticket is still live at exactly ExpiresAt.
func (t *Ticket) ExpiredAt(now int64) bool {
	return t.ExpiresAt < now
}
