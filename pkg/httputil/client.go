// Package httputil carries the shared HTTP plumbing for scamgate's
// optional network capabilities. The only outbound traffic the engine
// generates itself is probing untrusted short-link infrastructure, so
// the transport here is tuned for many small requests against hosts we
// do not trust: short dial and handshake deadlines, a modest idle pool
// for the handful of legitimate shortener domains that recur, and hard
// caps on anything read off the wire.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxProbeBody caps how much of a probe response body is ever read.
// Redirect probes only need headers; anything beyond this is discarded.
const MaxProbeBody = 64 * 1024

// Shared transport for redirect probing. Compression is disabled since
// probes never read a payload, and the dial/handshake deadlines are
// short so a single slow host cannot eat the whole resolve window.
var probeTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   2 * time.Second,
		KeepAlive: 15 * time.Second,
	}).DialContext,
	MaxIdleConns:          32,
	MaxIdleConnsPerHost:   4,
	IdleConnTimeout:       30 * time.Second,
	TLSHandshakeTimeout:   2 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	DisableCompression:    true,
}

var (
	probeClient *http.Client
	probeOnce   sync.Once
)

// ProbeClient returns the shared client for redirect probing. It never
// follows redirects on its own: the resolver walks the Location chain
// itself so every intermediate host can be vetted before it is fetched.
// The client is a shared singleton over a pooled transport; do not
// mutate it.
func ProbeClient() *http.Client {
	probeOnce.Do(func() {
		probeClient = &http.Client{
			Timeout:   4 * time.Second,
			Transport: probeTransport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	})
	return probeClient
}

// DrainAndClose drains at most MaxProbeBody bytes and closes the body
// so the pooled connection can be reused. Safe on nil.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxProbeBody))
		_ = body.Close()
	}
}
