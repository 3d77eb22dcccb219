package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ticketvault/internal/clockx"
	"github.com/dmitrijs2005/ticketvault/internal/common"
	"github.com/dmitrijs2005/ticketvault/internal/cryptox"
	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/blobstore"
	"github.com/dmitrijs2005/ticketvault/internal/server/notify"
	"github.com/dmitrijs2005/ticketvault/internal/server/repositories/tickets"
	"github.com/dmitrijs2005/ticketvault/internal/server/services"
	"github.com/dmitrijs2005/ticketvault/internal/server/tasks"
)

func TestRealIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "no trusted proxies keeps peer",
			remote:  "198.51.100.9:4000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4", "X-Forwarded-For": "1.2.3.4"},
			want:    "198.51.100.9:4000",
		},
		{
			name:    "untrusted peer keeps peer",
			trusted: proxies,
			remote:  "198.51.100.9:4000",
			headers: map[string]string{"True-Client-IP": "1.2.3.4"},
			want:    "198.51.100.9:4000",
		},
		{
			name:    "trusted peer with x-real-ip",
			trusted: proxies,
			remote:  "10.0.0.2:4000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "1.2.3.4",
		},
		{
			name:    "forwarded chain skips trusted hops",
			trusted: proxies,
			remote:  "10.0.0.2:4000",
			headers: map[string]string{"X-Forwarded-For": "6.6.6.6, 1.2.3.4, 10.0.0.7"},
			want:    "1.2.3.4",
		},
		{
			name:    "forwarded chain of trusted hops uses leftmost",
			trusted: proxies,
			remote:  "10.0.0.2:4000",
			headers: map[string]string{"X-Forwarded-For": "10.9.9.9, 10.0.0.7"},
			want:    "10.9.9.9",
		},
		{
			name:    "malformed forwarded entry keeps peer",
			trusted: proxies,
			remote:  "10.0.0.2:4000",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4, garbage"},
			want:    "10.0.0.2:4000",
		},
		{
			name:    "trusted peer without headers keeps peer",
			trusted: proxies,
			remote:  "10.0.0.2:4000",
			want:    "10.0.0.2:4000",
		},
		{
			name:    "mapped ipv6 peer matches ipv4 range",
			trusted: proxies,
			remote:  "[::ffff:10.0.0.2]:4000",
			headers: map[string]string{"X-Real-IP": "1.2.3.4"},
			want:    "1.2.3.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := realIP(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

// A spoofed proxy header must not let a caller through a ticket's allow-list.
func TestRouter_AllowListIgnoresSpoofedHeaders(t *testing.T) {
	runner := tasks.NewRunner(logging.Nop(), time.Second)
	cipher := cryptox.NewEngine(cryptox.Config{
		Algorithm: cryptox.AlgAES256GCM,
		KDF:       cryptox.KDFParams{Time: 1, MemoryKiB: 1024, Threads: 1},
	})
	svc := services.NewTicketService(tickets.NewMemoryRepository(), blobstore.NewMemoryStore(), cipher,
		notify.Nop{}, runner, clockx.NewFake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		logging.Nop(), services.TicketConfig{})

	created, err := svc.Create(context.Background(), services.ServerManagedTicket{
		TicketOptions: services.TicketOptions{ExpiresMinutes: 10, IPAddresses: []string{"1.2.3.4"}},
		Text:          "secret",
		Password:      "pw",
	})
	require.NoError(t, err)

	decrypt := func(trusted []netip.Prefix, remote string, headers map[string]string) *httptest.ResponseRecorder {
		router := NewRouter(NewHandler(svc, logging.Nop()), logging.Nop(), trusted)
		req := httptest.NewRequest(http.MethodPost, "/v1/tickets/"+created.ID+"/decrypt", strings.NewReader(`{"password":"pw"}`))
		req.RemoteAddr = remote
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	for _, headers := range []map[string]string{
		nil,
		{"X-Real-IP": "1.2.3.4"},
		{"X-Forwarded-For": "1.2.3.4"},
		{"True-Client-IP": "1.2.3.4"},
	} {
		rec := decrypt(nil, "198.51.100.9:4000", headers)
		require.Equal(t, http.StatusForbidden, rec.Code, "headers %v", headers)
		assert.Equal(t, string(common.CodeForbidden), decodeError(t, rec).Code)
	}

	trusted := []netip.Prefix{netip.MustParsePrefix("198.51.100.0/24")}
	rec := decrypt(trusted, "198.51.100.9:4000", map[string]string{"X-Forwarded-For": "1.2.3.4"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"text":"secret"`)

	require.NoError(t, runner.Wait(context.Background()))
}
