package urlscan

import "strings"

// officialBrands maps a brand's root label to its official domain
// suffixes. Exact hosts and exact subdomains of these suffixes are
// never flagged as typosquats.
var officialBrands = []struct {
	Label    string
	Suffixes []string
}{
	{"kbstar", []string{"kbstar.com", "kbsec.com"}},
	{"shinhan", []string{"shinhan.com", "shinhansec.com"}},
	{"wooribank", []string{"wooribank.com"}},
	{"kebhana", []string{"kebhana.com", "hanafn.com"}},
	{"nonghyup", []string{"nonghyup.com", "nhbank.com"}},
	{"ibk", []string{"ibk.co.kr"}},
	{"kakaobank", []string{"kakaobank.com"}},
	{"tossbank", []string{"tossbank.com", "toss.im"}},
	{"kftc", []string{"kftc.or.kr"}},
	{"fss", []string{"fss.or.kr"}},
	{"gov", []string{"gov.kr"}},
	{"paypal", []string{"paypal.com"}},
	{"apple", []string{"apple.com"}},
	{"google", []string{"google.com"}},
}

// bankContext is the corroboration check for short brand labels:
// a 3-char label one edit away from almost anything is noise unless
// the surrounding text claims to be a bank or finance authority.
var bankContextWords = []string{
	"은행", "뱅크", "금융", "계좌", "금감원", "증권",
	"bank", "banking", "finance", "account",
}

func hasBankContext(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range bankContextWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// IsOfficialHost reports whether host is an official brand domain or
// an exact subdomain of one (e.g. online.kbstar.com).
func IsOfficialHost(host string) bool {
	host = strings.ToLower(host)
	for _, b := range officialBrands {
		for _, suf := range b.Suffixes {
			if host == suf || strings.HasSuffix(host, "."+suf) {
				return true
			}
		}
	}
	return false
}

// CheckTyposquat reports whether any label of host sits within edit
// distance 2 of a known brand label. Acceptance requires both edit
// distance ≤2 and label-length difference ≤2; labels shorter than 4
// characters additionally require bank/finance wording in the
// surrounding context, since tiny labels collide with everything.
func CheckTyposquat(host, context string) (brand string, ok bool) {
	host = strings.ToLower(host)
	labels := strings.Split(host, ".")
	if len(labels) >= 2 {
		labels = labels[:len(labels)-1] // drop the TLD label
	}

	for _, label := range labels {
		if label == "" || label == "www" {
			continue
		}
		for _, b := range officialBrands {
			if label == b.Label {
				// Exact brand label on a non-official host is the
				// strongest squat of all (kbstar.evil.com).
				return b.Label, true
			}
			if abs(len(label)-len(b.Label)) > 2 {
				continue
			}
			d := editDistance(label, b.Label)
			if d == 0 || d > 2 {
				continue
			}
			if minInt(len(label), len(b.Label)) < 4 && !hasBankContext(context) {
				continue
			}
			return b.Label, true
		}
	}
	return "", false
}

// editDistance is the Levenshtein distance between two lowercase
// labels, single-row iterative form.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur := make([]int, len(rb)+1)
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt(minInt(cur[j-1]+1, prev[j]+1), prev[j-1]+cost)
		}
		prev = cur
	}
	return prev[len(rb)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
