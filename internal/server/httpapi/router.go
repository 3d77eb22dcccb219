package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmitrijs2005/ticketvault/internal/logging"
)

// NewRouter builds the HTTP handler tree, instrumented with otelhttp.
// Proxy address headers are honoured only from trustedProxies.
func NewRouter(h *Handler, l logging.Logger, trustedProxies []netip.Prefix) http.Handler {
	r := chi.NewRouter()

	r.Use(realIP(trustedProxies))
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger(l))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/v1/tickets", func(r chi.Router) {
		r.Post("/", h.CreateTicket)
		r.Get("/{id}", h.GetTicket)
		r.Post("/{id}/decrypt", h.DecryptTicket)
		r.Delete("/{id}", h.DeleteTicket)
	})

	return otelhttp.NewHandler(r, "ticketvault.http")
}

func requestLogger(l logging.Logger) func(http.Handler) http.Handler {
	l = l.With("module", "http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			l.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
