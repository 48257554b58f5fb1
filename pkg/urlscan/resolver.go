package urlscan

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guardline/scamgate/pkg/httputil"
)

// ResolveStatus is the typed outcome of a network redirect resolution.
// I/O failures are statuses, never errors: the resolver is an optional
// capability and the caller always gets a usable Resolution back.
type ResolveStatus string

const (
	ResolveOK           ResolveStatus = "ok"
	ResolveInvalidURL   ResolveStatus = "invalid-url"
	ResolveUnsupported  ResolveStatus = "unsupported-protocol"
	ResolveBlockedHost  ResolveStatus = "blocked-host"
	ResolveLoopDetected ResolveStatus = "loop-detected"
	ResolveUnavailable  ResolveStatus = "fetch-unavailable"
	ResolveMaxHops      ResolveStatus = "max-hops-reached"
)

// Resolution is the result of following real HTTP redirects.
type Resolution struct {
	Status   ResolveStatus `json:"status"`
	Chain    []string      `json:"chain"`
	FinalURL string        `json:"final_url,omitempty"`
	Hops     int           `json:"hops"`
}

// DefaultResolveTimeout bounds one whole resolution, all hops included.
const DefaultResolveTimeout = 2500 * time.Millisecond

// Resolver follows real HTTP redirects for a URL, up to a hop cap,
// without ever following a redirect into loopback or private address
// space. A failed hop is surfaced as a typed status; it is never
// retried.
type Resolver struct {
	client  *http.Client
	hopCap  int
	timeout time.Duration
	sem     *httputil.Semaphore
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient injects the HTTP client. The client must not follow
// redirects itself; the default ProbeClient already behaves this way.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

// WithHopCap overrides the redirect hop cap (default 5).
func WithHopCap(n int) ResolverOption {
	return func(r *Resolver) { r.hopCap = n }
}

// WithTimeout overrides the whole-resolution timeout (default 2.5s).
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.timeout = d }
}

// WithMaxConcurrent bounds concurrent resolutions across goroutines.
func WithMaxConcurrent(n int) ResolverOption {
	return func(r *Resolver) { r.sem = httputil.NewSemaphore(n) }
}

// NewResolver builds a network redirect resolver over the shared
// pooled transport.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		hopCap:  DefaultHopCap,
		timeout: DefaultResolveTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = httputil.ProbeClient()
	}
	return r
}

// Resolve follows redirects for raw. Each call is independently
// cancellable through ctx; the configured timeout applies on top.
func (r *Resolver) Resolve(ctx context.Context, raw string) Resolution {
	res := Resolution{Chain: []string{raw}}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		res.Status = ResolveInvalidURL
		return res
	}
	if !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https") {
		res.Status = ResolveUnsupported
		return res
	}

	if r.sem != nil {
		if err := r.sem.Acquire(ctx); err != nil {
			res.Status = ResolveUnavailable
			return res
		}
		defer r.sem.Release()
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	seen := map[string]bool{raw: true}
	cur := u

	for hop := 0; hop < r.hopCap; hop++ {
		if blockedHost(cur.Hostname()) {
			res.Status = ResolveBlockedHost
			return res
		}

		req, rerr := http.NewRequestWithContext(ctx, http.MethodHead, cur.String(), nil)
		if rerr != nil {
			res.Status = ResolveInvalidURL
			return res
		}
		resp, derr := r.client.Do(req)
		if derr != nil {
			res.Status = ResolveUnavailable
			return res
		}
		loc := resp.Header.Get("Location")
		httputil.DrainAndClose(resp.Body)

		if resp.StatusCode < 300 || resp.StatusCode >= 400 || loc == "" {
			res.Status = ResolveOK
			res.FinalURL = cur.String()
			res.Hops = hop
			return res
		}

		next, lerr := cur.Parse(loc)
		if lerr != nil {
			res.Status = ResolveInvalidURL
			return res
		}
		if seen[next.String()] {
			res.Status = ResolveLoopDetected
			res.Chain = append(res.Chain, next.String())
			return res
		}
		seen[next.String()] = true
		res.Chain = append(res.Chain, next.String())
		res.Hops = hop + 1
		cur = next
	}

	res.Status = ResolveMaxHops
	return res
}

// blockedHost reports whether host must never be fetched: localhost,
// loopback, private and link-local ranges.
func blockedHost(host string) bool {
	h := strings.ToLower(host)
	if h == "localhost" || strings.HasSuffix(h, ".localhost") || h == "" {
		return true
	}
	ip := net.ParseIP(h)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
