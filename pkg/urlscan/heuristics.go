package urlscan

import (
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/idna"
)

// Report is the classification of a single URL candidate.
type Report struct {
	Raw  string `json:"raw"`
	Host string `json:"host"`

	PlainHTTP     bool     `json:"plain_http"`
	Shortener     bool     `json:"shortener"`
	IPHost        bool     `json:"ip_host"`
	Punycode      bool     `json:"punycode"`
	UnicodeHost   string   `json:"unicode_host,omitempty"`
	DeepSubdomain bool     `json:"deep_subdomain"`
	DownloadExt   bool     `json:"download_ext"`
	AtAuthority   bool     `json:"at_authority"`
	RedirectParam bool     `json:"redirect_param"`
	RedirectChain []string `json:"redirect_chain,omitempty"`
	Typosquat     bool     `json:"typosquat"`
	TyposquatOf   string   `json:"typosquat_of,omitempty"`
	Mismatch      bool     `json:"mismatch"`
	OfficialHost  bool     `json:"official_host"`
}

// Suspicious reports whether any threat flag is set.
func (r *Report) Suspicious() bool {
	return r.PlainHTTP || r.Shortener || r.IPHost || r.Punycode ||
		r.DeepSubdomain || r.DownloadExt || r.AtAuthority ||
		r.RedirectParam || r.Typosquat || r.Mismatch
}

// shortenerHosts are link shorteners routinely abused to hide the
// final destination from SMS recipients.
var shortenerHosts = map[string]bool{
	"bit.ly": true, "tinyurl.com": true, "t.co": true, "goo.gl": true,
	"is.gd": true, "ow.ly": true, "buff.ly": true, "cutt.ly": true,
	"rb.gy": true, "rebrand.ly": true, "shorturl.at": true,
	"han.gl": true, "me2.do": true, "url.kr": true, "vo.la": true,
	"c11.kr": true, "zrr.kr": true, "abit.ly": true,
}

// downloadExts are executable/archive payload extensions.
var downloadExts = map[string]bool{
	".apk": true, ".exe": true, ".msi": true, ".bat": true, ".cmd": true,
	".scr": true, ".jar": true, ".dmg": true, ".pkg": true,
	".zip": true, ".rar": true, ".7z": true,
}

// ClassifyURL classifies one URL candidate. context is the surrounding
// message text (used by the typosquat check for short-label
// corroboration); displayText is the anchor text when the link came
// from markup, empty otherwise. Unparseable URLs yield a zero Report,
// never an error: a broken token is simply not a threat signal.
func ClassifyURL(raw, context, displayText string) Report {
	rep := Report{Raw: raw}

	norm := raw
	if !strings.Contains(norm, "://") {
		norm = "http://" + norm
	}
	u, err := url.Parse(norm)
	if err != nil || u.Host == "" {
		return rep
	}

	host := strings.ToLower(u.Hostname())
	rep.Host = host

	rep.PlainHTTP = strings.EqualFold(u.Scheme, "http") && strings.Contains(raw, "://")
	rep.Shortener = shortenerHosts[host]
	rep.IPHost = net.ParseIP(host) != nil
	rep.AtAuthority = strings.Contains(norm[strings.Index(norm, "://")+3:], "@") &&
		u.User != nil

	if strings.Contains(host, "xn--") {
		rep.Punycode = true
		if uni, uerr := idna.ToUnicode(host); uerr == nil && uni != host {
			rep.UnicodeHost = uni
		}
	}

	if !rep.IPHost && strings.Count(host, ".") >= 3 {
		rep.DeepSubdomain = true
	}

	if ext := strings.ToLower(path.Ext(u.Path)); downloadExts[ext] {
		rep.DownloadExt = true
	}

	if chain := ChaseRedirectParams(norm, DefaultHopCap); len(chain) > 1 {
		rep.RedirectParam = true
		rep.RedirectChain = chain
	}

	rep.OfficialHost = IsOfficialHost(host)
	if !rep.OfficialHost {
		if brand, ok := CheckTyposquat(host, context); ok {
			rep.Typosquat = true
			rep.TyposquatOf = brand
		}
	}

	if displayText != "" {
		rep.Mismatch = displayMismatch(displayText, host)
	}

	return rep
}

// displayMismatch reports whether the anchor text names a different
// host than the actual link target.
func displayMismatch(display, actualHost string) bool {
	display = strings.ToLower(strings.TrimSpace(display))
	shown := ""
	if m := reURL.FindString(display); m != "" {
		shown = m
	} else if m := reBareHost.FindString(display); m != "" {
		shown = m
	}
	if shown == "" {
		return false
	}
	if !strings.Contains(shown, "://") {
		shown = "http://" + shown
	}
	du, err := url.Parse(shown)
	if err != nil || du.Hostname() == "" {
		return false
	}
	shownHost := strings.ToLower(du.Hostname())
	return shownHost != actualHost && !strings.HasSuffix(actualHost, "."+shownHost)
}

// ScanText extracts and classifies every URL candidate in text.
func ScanText(text string) []Report {
	urls := ExtractURLs(text)
	reports := make([]Report, 0, len(urls))
	for _, u := range urls {
		reports = append(reports, ClassifyURL(u, text, ""))
	}
	return reports
}
