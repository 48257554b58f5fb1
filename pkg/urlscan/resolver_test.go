package urlscan

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// stubClient serves canned redirects keyed by URL. Unknown URLs get a
// plain 200.
func stubClient(redirects map[string]string) *http.Client {
	return &http.Client{
		// The resolver walks Location chains itself.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			resp := &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{},
				Body:       http.NoBody,
				Request:    req,
			}
			if loc, ok := redirects[req.URL.String()]; ok {
				resp.StatusCode = http.StatusFound
				resp.Header.Set("Location", loc)
			}
			return resp, nil
		}),
	}
}

func TestResolveFollowsChain(t *testing.T) {
	r := NewResolver(WithHTTPClient(stubClient(map[string]string{
		"http://short.example/a": "http://mid.example/b",
		"http://mid.example/b":   "https://final.example/landing",
	})))

	res := r.Resolve(context.Background(), "http://short.example/a")

	if res.Status != ResolveOK {
		t.Fatalf("Status = %s, want ok", res.Status)
	}
	if res.FinalURL != "https://final.example/landing" {
		t.Errorf("FinalURL = %s", res.FinalURL)
	}
	if res.Hops != 2 {
		t.Errorf("Hops = %d, want 2", res.Hops)
	}
	if len(res.Chain) != 3 {
		t.Errorf("Chain = %v, want 3 entries", res.Chain)
	}
}

func TestResolveNoRedirect(t *testing.T) {
	r := NewResolver(WithHTTPClient(stubClient(nil)))

	res := r.Resolve(context.Background(), "https://plain.example/page")

	if res.Status != ResolveOK || res.Hops != 0 {
		t.Errorf("status=%s hops=%d, want ok/0", res.Status, res.Hops)
	}
	if res.FinalURL != "https://plain.example/page" {
		t.Errorf("FinalURL = %s", res.FinalURL)
	}
}

func TestResolveLoop(t *testing.T) {
	r := NewResolver(WithHTTPClient(stubClient(map[string]string{
		"http://a.example/": "http://b.example/",
		"http://b.example/": "http://a.example/",
	})))

	res := r.Resolve(context.Background(), "http://a.example/")

	if res.Status != ResolveLoopDetected {
		t.Errorf("Status = %s, want loop-detected", res.Status)
	}
}

func TestResolveHopCap(t *testing.T) {
	redirects := make(map[string]string)
	for i := 0; i < 10; i++ {
		redirects[fmt.Sprintf("http://h%d.example/", i)] = fmt.Sprintf("http://h%d.example/", i+1)
	}
	r := NewResolver(WithHTTPClient(stubClient(redirects)), WithHopCap(3))

	res := r.Resolve(context.Background(), "http://h0.example/")

	if res.Status != ResolveMaxHops {
		t.Errorf("Status = %s, want max-hops-reached", res.Status)
	}
	if res.Hops != 3 {
		t.Errorf("Hops = %d, want hop cap 3", res.Hops)
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	r := NewResolver(WithHTTPClient(stubClient(nil)))
	ctx := context.Background()

	if res := r.Resolve(ctx, "http://%zz%"); res.Status != ResolveInvalidURL {
		t.Errorf("broken URL: Status = %s, want invalid-url", res.Status)
	}
	if res := r.Resolve(ctx, "ftp://files.example/x"); res.Status != ResolveUnsupported {
		t.Errorf("ftp: Status = %s, want unsupported-protocol", res.Status)
	}
}

func TestResolveBlocksInternalHosts(t *testing.T) {
	r := NewResolver(WithHTTPClient(stubClient(nil)))
	ctx := context.Background()

	for _, raw := range []string{
		"http://localhost/admin",
		"http://127.0.0.1/x",
		"http://10.0.0.5/x",
		"http://192.168.1.1/x",
		"http://169.254.1.1/x",
	} {
		if res := r.Resolve(ctx, raw); res.Status != ResolveBlockedHost {
			t.Errorf("Resolve(%s).Status = %s, want blocked-host", raw, res.Status)
		}
	}
}

func TestResolveBlocksRedirectIntoPrivateSpace(t *testing.T) {
	r := NewResolver(WithHTTPClient(stubClient(map[string]string{
		"http://lure.example/": "http://10.0.0.8/payload",
	})))

	res := r.Resolve(context.Background(), "http://lure.example/")

	if res.Status != ResolveBlockedHost {
		t.Errorf("Status = %s, want blocked-host on the redirect target", res.Status)
	}
}

func TestResolveTransportFailure(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	})}
	r := NewResolver(WithHTTPClient(client))

	res := r.Resolve(context.Background(), "http://down.example/")

	if res.Status != ResolveUnavailable {
		t.Errorf("Status = %s, want fetch-unavailable", res.Status)
	}
}

func TestResolveRelativeRedirect(t *testing.T) {
	r := NewResolver(WithHTTPClient(stubClient(map[string]string{
		"http://site.example/a": "/b",
	})))

	res := r.Resolve(context.Background(), "http://site.example/a")

	if res.Status != ResolveOK {
		t.Fatalf("Status = %s, want ok", res.Status)
	}
	if res.FinalURL != "http://site.example/b" {
		t.Errorf("FinalURL = %s, want the resolved relative target", res.FinalURL)
	}
	if !strings.HasPrefix(res.Chain[1], "http://site.example/") {
		t.Errorf("Chain = %v", res.Chain)
	}
}
