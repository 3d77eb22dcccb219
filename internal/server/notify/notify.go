// Package notify tells an external receiver that a ticket was created or
// read. Delivery is best effort.
package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ticketvault/internal/netx"
)

// Mode values carried by Event.
const (
	ModeEncrypt = "encrypt"
	ModeDecrypt = "decrypt"
)

// Event is the webhook payload. It never carries ticket content.
type Event struct {
	Mode string `json:"mode"`
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Webhook posts events as JSON to a fixed URL.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{url: url, client: &http.Client{Timeout: timeout}}
}

func (w *Webhook) Notify(ctx context.Context, e Event) error {
	return netx.PostJSON(ctx, w.client, w.url, e)
}

// Nop drops every event. Used when no webhook URL is configured.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// New returns a Webhook for url, or Nop when url is empty.
func New(url string, timeout time.Duration) Notifier {
	if url == "" {
		return Nop{}
	}
	return NewWebhook(url, timeout)
}
