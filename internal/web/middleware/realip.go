package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedRealIP extracts the real client IP from X-Real-IP or X-Forwarded-For
// headers, but ONLY if the request comes from a trusted proxy CIDR.
// If no trusted proxies are configured or the request is not from a trusted
// proxy, RemoteAddr is reduced to its host part and otherwise kept.
//
// Rate limiting keys on RemoteAddr, so spoofed headers from untrusted
// clients must not be honoured.
func TrustedRealIP(trustedCIDRs []string) func(http.Handler) http.Handler {
	var trusted []netip.Prefix
	for _, cidr := range trustedCIDRs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			// Accept a bare address as a single-host prefix
			addr, addrErr := netip.ParseAddr(cidr)
			if addrErr != nil {
				slog.Warn("realip: invalid trusted proxy CIDR, skipping", "cidr", cidr, "error", err)
				continue
			}
			prefix = netip.PrefixFrom(addr, addr.BitLen())
		}
		trusted = append(trusted, prefix.Masked())
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remote, ok := extractAddr(r.RemoteAddr)
			if ok {
				r.RemoteAddr = remote.String()
			}

			if ok && isTrusted(remote, trusted) {
				if ip, found := forwardedIP(r); found {
					r.RemoteAddr = ip.String()
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// forwardedIP returns the client address from X-Real-IP, falling back to
// the first X-Forwarded-For entry.
func forwardedIP(r *http.Request) (netip.Addr, bool) {
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		addr, err := netip.ParseAddr(rip)
		return addr, err == nil
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		addr, err := netip.ParseAddr(strings.TrimSpace(first))
		return addr, err == nil
	}
	return netip.Addr{}, false
}

// extractAddr parses an IP address from a host:port string or plain IP.
func extractAddr(s string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
