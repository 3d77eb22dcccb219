// Package httpapi exposes the ticket lifecycle over HTTP/JSON.
package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/ticketvault/internal/common"
	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/services"
)

// maxBodyBytes bounds request bodies. Large tickets are offloaded to blob
// storage, so this sits well above the inline text limit.
const maxBodyBytes = 8 << 20

// Tickets is the ticket lifecycle as seen by the HTTP layer.
type Tickets interface {
	Create(ctx context.Context, req services.CreateRequest) (*services.CreateResult, error)
	Get(ctx context.Context, id, callerIP string) (*services.TicketView, bool, error)
	Decrypt(ctx context.Context, id, password, callerIP string) (*services.TicketView, error)
	Delete(ctx context.Context, id, password string) (*services.TicketView, error)
}

type Handler struct {
	tickets Tickets
	logger  logging.Logger
}

func NewHandler(t Tickets, l logging.Logger) *Handler {
	return &Handler{tickets: t, logger: l.With("module", "httpapi")}
}

// CreateTicketRequest selects client mode when ClientMode is set: Text is
// then stored as-is together with IV and AuthTag, and Password is ignored.
type CreateTicketRequest struct {
	Text           string   `json:"text"`
	Password       string   `json:"password,omitempty"`
	ExpiresMinutes int      `json:"expires"`
	OneTime        bool     `json:"one_time"`
	IPAddresses    []string `json:"ip_addresses,omitempty"`
	ClientMode     bool     `json:"client_mode"`
	IV             string   `json:"iv,omitempty"`
	AuthTag        string   `json:"auth_tag,omitempty"`
}

type CreateTicketResponse struct {
	ID      string `json:"id"`
	Expires int64  `json:"expires"`
}

// PasswordRequest is the body of decrypt and delete calls.
type PasswordRequest struct {
	Password string `json:"password"`
}

type TicketResponse struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Created    int64  `json:"created"`
	Expires    int64  `json:"expires"`
	OneTime    bool   `json:"one_time"`
	ClientMode bool   `json:"client_mode"`
	Offloaded  bool   `json:"offloaded"`
	Expired    bool   `json:"expired"`
	IV         string `json:"iv,omitempty"`
	AuthTag    string `json:"auth_tag,omitempty"`
}

func (r CreateTicketRequest) toService() services.CreateRequest {
	opts := services.TicketOptions{
		ExpiresMinutes: r.ExpiresMinutes,
		OneTime:        r.OneTime,
		IPAddresses:    r.IPAddresses,
	}
	if r.ClientMode {
		return services.ClientManagedTicket{TicketOptions: opts, Ciphertext: r.Text, IV: r.IV, AuthTag: r.AuthTag}
	}
	return services.ServerManagedTicket{TicketOptions: opts, Text: r.Text, Password: r.Password}
}

func toResponse(v *services.TicketView) TicketResponse {
	return TicketResponse{
		ID:         v.ID,
		Text:       v.Text,
		Created:    v.CreatedAt,
		Expires:    v.ExpiresAt,
		OneTime:    v.OneTime,
		ClientMode: v.ClientMode,
		Offloaded:  v.Offloaded,
		Expired:    v.Expired,
		IV:         v.IV,
		AuthTag:    v.AuthTag,
	}
}

// CreateTicket handles POST /v1/tickets.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateTicketRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.tickets.Create(r.Context(), req.toService())
	if err != nil {
		h.fail(w, r, "create", err)
		return
	}

	writeJSON(w, http.StatusOK, CreateTicketResponse{ID: res.ID, Expires: res.ExpiresAt})
}

// GetTicket handles GET /v1/tickets/{id}.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, found, err := h.tickets.Get(r.Context(), id, clientIP(r))
	if err != nil {
		h.fail(w, r, "get", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, common.CodeNotFound, "Could not find item ID: "+id)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(v))
}

// DecryptTicket handles POST /v1/tickets/{id}/decrypt.
func (h *Handler) DecryptTicket(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := h.tickets.Decrypt(r.Context(), chi.URLParam(r, "id"), req.Password, clientIP(r))
	if err != nil {
		h.fail(w, r, "decrypt", err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(v))
}

// DeleteTicket handles DELETE /v1/tickets/{id}.
func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	v, err := h.tickets.Delete(r.Context(), chi.URLParam(r, "id"), req.Password)
	if err != nil {
		h.fail(w, r, "delete", err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, common.CodeValidation, "malformed JSON body")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := common.CodeOf(err)
	status := statusOf(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "ticket operation failed", "op", op, "code", code, "error", err)
	} else {
		h.logger.Info(r.Context(), "ticket operation rejected", "op", op, "code", code)
	}
	writeError(w, status, code, publicMessage(err))
}

// clientIP returns the caller address without the port. realIP has already
// replaced RemoteAddr when a trusted proxy forwarded the request.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
