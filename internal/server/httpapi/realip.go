package httpapi

import (
	"net/http"
	"net/netip"
	"strings"
)

// realIP replaces RemoteAddr with the address reported in proxy headers, but
// only when the request arrives from one of the trusted proxy ranges. Headers
// from any other peer are ignored, so they cannot widen an IP allow-list.
func realIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip, ok := forwardedIP(r, trusted); ok {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forwardedIP(r *http.Request, trusted []netip.Prefix) (string, bool) {
	peer, ok := parseAddr(r.RemoteAddr)
	if !ok || !isTrusted(peer, trusted) {
		return "", false
	}

	for _, h := range []string{"True-Client-IP", "X-Real-IP"} {
		if a, ok := parseAddr(r.Header.Get(h)); ok {
			return a.String(), true
		}
	}

	xff := r.Header.Values("X-Forwarded-For")
	if len(xff) == 0 {
		return "", false
	}

	// Walk right to left: the nearest hop not owned by us is the client.
	hops := strings.Split(strings.Join(xff, ","), ",")
	var leftmost netip.Addr
	for i := len(hops) - 1; i >= 0; i-- {
		a, ok := parseAddr(hops[i])
		if !ok {
			return "", false
		}
		if !isTrusted(a, trusted) {
			return a.String(), true
		}
		leftmost = a
	}
	return leftmost.String(), true
}

// parseAddr accepts "ip" or "ip:port" and unmaps IPv4-in-IPv6 addresses.
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}

func isTrusted(a netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
