// Package urlscan classifies URLs found in conversational text into
// threat signals: obfuscated schemes, shortener hosts, raw-IP hosts,
// punycode, deep subdomains, executable payloads, redirect-parameter
// chains, brand typosquats and display-vs-actual link mismatches.
//
// All classification is pure string work. The only I/O lives in the
// optional network resolver (resolver.go), which is injected as a
// capability and never required by the scoring contract.
package urlscan

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Patterns compiled once at package load.
var (
	reBracketDot = regexp.MustCompile(`\[\s*\.\s*\]|\(\s*\.\s*\)|\{\s*\.\s*\}`)
	reHxxp       = regexp.MustCompile(`(?i)\bh[x*]{2}ps?\b`)
	reSpacedDot  = regexp.MustCompile(`(\p{L}|\d)\s+\.\s+(\p{L}|\d)`)
	reURL        = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"'\x60]+|\bwww\.[^\s<>"'\x60]+`)
	reBareHost   = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]{0,62}(\.[a-z0-9][a-z0-9-]{0,62})*\.(com|net|org|kr|io|me|ly|gl|link|xyz|top|shop|site|info|club|online)\b(/[^\s<>"']*)?`)
)

// zero-width and bidi control characters stripped during normalization.
var invisibleRunes = map[rune]bool{
	'\u200b': true, // zero width space
	'\u200c': true, // zero width non-joiner
	'\u200d': true, // zero width joiner
	'\u2060': true, // word joiner
	'\ufeff': true, // BOM
	'\u200e': true, // LRM
	'\u200f': true, // RLM
	'\u202a': true, // LRE
	'\u202b': true, // RLE
	'\u202c': true, // PDF
	'\u202d': true, // LRO
	'\u202e': true, // RLO
}

// NormalizeText undoes the common URL obfuscations used to slip links
// past keyword filters: bracket-dots, hxxp schemes, zero-width chars
// and full-width compatibility forms.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	// Full-width forms (ｈｔｔｐ) and compatibility decompositions first,
	// so the regex passes below see plain ASCII.
	text = width.Narrow.String(text)
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if invisibleRunes[r] {
			continue
		}
		b.WriteRune(r)
	}
	text = b.String()

	text = reBracketDot.ReplaceAllString(text, ".")
	text = reHxxp.ReplaceAllStringFunc(text, func(m string) string {
		if strings.HasSuffix(strings.ToLower(m), "s") {
			return "https"
		}
		return "http"
	})
	text = reSpacedDot.ReplaceAllString(text, "$1.$2")
	return text
}

// HadInvisibles reports whether text contains zero-width or bidi
// control characters. Checked on the raw text, before normalization.
func HadInvisibles(text string) bool {
	for _, r := range text {
		if invisibleRunes[r] {
			return true
		}
	}
	return false
}

// MaxCandidates caps URL extraction per text. Spray messages carry
// dozens of links; past this point more candidates add no signal.
const MaxCandidates = 16

// ExtractURLs normalizes text and returns up to MaxCandidates URL
// candidates. Bare hosts (no scheme) are returned as found; callers
// normalize the scheme in ClassifyURL.
func ExtractURLs(text string) []string {
	text = NormalizeText(text)

	seen := make(map[string]bool)
	var out []string
	add := func(raw string) bool {
		raw = strings.TrimRight(raw, ".,);]}>\"'")
		if raw == "" || seen[raw] {
			return len(out) < MaxCandidates
		}
		seen[raw] = true
		out = append(out, raw)
		return len(out) < MaxCandidates
	}

	for _, m := range reURL.FindAllString(text, MaxCandidates) {
		if !add(m) {
			return out
		}
	}
	for _, m := range reBareHost.FindAllString(text, MaxCandidates) {
		// Skip hosts already captured within a full URL.
		dup := false
		for _, u := range out {
			if strings.Contains(u, m) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if !add(m) {
			return out
		}
	}
	return out
}
