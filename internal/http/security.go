package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// trustedProxies lists the networks whose forwarding headers we
// believe. The app is expected to sit behind a reverse proxy on the
// same host or a private network.
var trustedProxies = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
	mustParseCIDR("::1/128"),
}

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("invalid CIDR %q: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP resolves the real client address. Forwarding headers
// are only honored when the direct peer is a trusted proxy, so a
// client on the open internet cannot spoof its way past the rate
// limiter.
func extractClientIP(r *http.Request) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	parsed := net.ParseIP(remoteIP)
	if parsed == nil || !isTrustedProxy(parsed) {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}
	return remoteIP
}

var suspiciousQueryPatterns = []string{
	"<script",
	"javascript:",
	"union select",
	"drop table",
	"../",
	"%2e%2e",
}

var suspiciousUserAgents = []string{
	"sqlmap",
	"nikto",
	"masscan",
	"nmap",
}

const maxURLLength = 2048

// detectSuspiciousRequest applies cheap heuristics to flag probes and
// scanner traffic. Flagged requests are logged, not blocked; a
// household app sees plenty of background noise.
func detectSuspiciousRequest(r *http.Request) (bool, string) {
	if len(r.URL.String()) > maxURLLength {
		return true, "url too long"
	}

	path := strings.ToLower(r.URL.Path)
	if strings.Contains(path, "..") || strings.Contains(path, "//") {
		return true, "path traversal attempt"
	}

	query := strings.ToLower(r.URL.RawQuery)
	for _, pattern := range suspiciousQueryPatterns {
		if strings.Contains(query, pattern) {
			return true, "suspicious query pattern"
		}
	}

	ua := strings.ToLower(r.UserAgent())
	for _, scanner := range suspiciousUserAgents {
		if strings.Contains(ua, scanner) {
			return true, "scanner user agent"
		}
	}

	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodHead:
	default:
		return true, "unexpected method"
	}

	return false, ""
}

// securityMetrics counts security-relevant events for the metrics
// endpoint. All counters are updated atomically.
type securityMetrics struct {
	suspiciousRequests atomic.Int64
	rateLimitHits      atomic.Int64
}

func (m *securityMetrics) recordSuspiciousRequest() {
	m.suspiciousRequests.Add(1)
}

func (m *securityMetrics) recordRateLimitHit() {
	m.rateLimitHits.Add(1)
}

func (m *securityMetrics) snapshot() (suspicious, rateLimited int64) {
	return m.suspiciousRequests.Load(), m.rateLimitHits.Load()
}
