package urlscan

import (
	"net/url"
	"strings"
)

// DefaultHopCap bounds both the string-level parameter chase and the
// network resolver.
const DefaultHopCap = 5

// redirectParamKeys are query parameters commonly used to chain a
// landing page to the real destination.
var redirectParamKeys = []string{
	"url", "redirect", "redirect_url", "redirect_uri", "next", "target",
	"dest", "destination", "goto", "go", "link", "u", "q", "to",
	"returnurl", "return_url", "continue", "forward",
}

// ChaseRedirectParams follows redirect-style query parameters purely
// at the string level: look up a known key, decode its value, treat it
// as the next URL, repeat. Stops when no parameter is found, a URL
// repeats (cycle) or the hop cap is reached. Returns the visited chain
// starting with the input; a single-element chain means no chase.
func ChaseRedirectParams(raw string, hopCap int) []string {
	if hopCap <= 0 {
		hopCap = DefaultHopCap
	}

	chain := []string{raw}
	seen := map[string]bool{raw: true}
	cur := raw

	for hop := 0; hop < hopCap; hop++ {
		next, ok := nextRedirectTarget(cur)
		if !ok {
			break
		}
		if seen[next] {
			break // cycle
		}
		seen[next] = true
		chain = append(chain, next)
		cur = next
	}
	return chain
}

// nextRedirectTarget extracts the first known redirect-parameter value
// from raw's query string that itself looks like a URL.
func nextRedirectTarget(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	q := u.Query()
	for _, key := range redirectParamKeys {
		for qk, vals := range q {
			if !strings.EqualFold(qk, key) {
				continue
			}
			for _, v := range vals {
				if decoded, derr := url.QueryUnescape(v); derr == nil {
					v = decoded
				}
				v = strings.TrimSpace(v)
				if looksLikeURL(v) {
					if !strings.Contains(v, "://") {
						v = "http://" + v
					}
					return v, true
				}
			}
		}
	}
	return "", false
}

func looksLikeURL(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return true
	}
	// Host-shaped: at least one dot, no spaces, plausible first label.
	if strings.ContainsAny(s, " \t\n") || !strings.Contains(s, ".") {
		return false
	}
	return reBareHost.MatchString(s)
}
