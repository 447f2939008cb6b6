package handlers

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RateLimiter is the minimal interface required to guard sensitive endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

// requestLimiter keys a RateLimiter by scope and client address. Forwarding
// headers are only believed when the connection comes from a trusted proxy.
type requestLimiter struct {
	limiter RateLimiter
	trusted []netip.Prefix
}

func (l requestLimiter) allow(r *http.Request, scope string) bool {
	if l.limiter == nil {
		return true
	}
	return l.limiter.Allow(rateLimitKey(l.clientIP(r), scope))
}

func rateLimitKey(ip, scope string) string {
	if scope == "" {
		return ip
	}
	return fmt.Sprintf("%s:%s", scope, ip)
}

func (l requestLimiter) clientIP(r *http.Request) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		remote = host
	}

	addr, err := netip.ParseAddr(remote)
	if err != nil || !l.isTrusted(addr) {
		return remote
	}

	// Walk right to left: each trusted hop appended the address it saw.
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !l.isTrusted(hop) {
			return hop.String()
		}
		remote = hop.String()
	}
	return remote
}

func (l requestLimiter) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, prefix := range l.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
