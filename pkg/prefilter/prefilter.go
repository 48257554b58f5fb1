// Package prefilter implements the cheap first-pass gate that decides
// whether a thread is worth running through the full analysis engine.
// It looks only at recent sender-side text plus optional UI hints
// (explicit user actions, link display/href pairs) and produces a
// coarse score, an action recommendation and a gate decision. It never
// resolves URLs or touches the network.
package prefilter

import (
	"regexp"
	"sort"
	"strings"

	"github.com/guardline/scamgate/pkg/rules"
	"github.com/guardline/scamgate/pkg/urlscan"
)

// Action is the prefilter's coarse recommendation.
type Action string

const (
	ActionNone Action = "none"
	ActionSoft Action = "soft"
	ActionAuto Action = "auto"
)

// Defaults tuned against the regression corpus. Keep overridable but
// do not retune without labeled data.
const (
	DefaultRecentLines   = 16
	DefaultSoftThreshold = 28
	DefaultAutoThreshold = 52
	defaultGateMin       = 18
)

// ExplicitActions counts user interactions the host UI observed on the
// thread. An open-URL action is treated as irreversible exposure.
type ExplicitActions struct {
	CopyText     int `json:"copy_text"`
	OpenURL      int `json:"open_url"`
	InstallClick int `json:"install_click"`
}

// LinkCandidate is a display-text/href pair extracted from markup by
// the caller, for mismatch detection the raw text alone cannot see.
type LinkCandidate struct {
	Display string `json:"display"`
	Href    string `json:"href"`
}

// Options configures one Evaluate call. The zero value gets defaults.
type Options struct {
	RecentLines    int
	SoftThreshold  int
	AutoThreshold  int
	AllowHosts     []string
	BankAllowHosts []string
	Actions        ExplicitActions
	Links          []LinkCandidate
	UnknownContact bool
	Debug          bool
}

func (o Options) normalize() Options {
	if o.RecentLines <= 0 {
		o.RecentLines = DefaultRecentLines
	}
	if o.SoftThreshold <= 0 {
		o.SoftThreshold = DefaultSoftThreshold
	}
	if o.AutoThreshold <= 0 {
		o.AutoThreshold = DefaultAutoThreshold
	}
	return o
}

// SignalPoint is one scored prefilter signal. Only the best-scoring
// instance per ID contributes to the total.
type SignalPoint struct {
	ID     string `json:"id"`
	Points int    `json:"points"`
	Sample string `json:"sample,omitempty"`
}

// Combo is a bonus for two signals that are far more dangerous
// together than apart.
type Combo struct {
	ID     string `json:"id"`
	Points int    `json:"points"`
}

// Result is the prefilter verdict for one thread.
type Result struct {
	Score    int           `json:"score"`
	Action   Action        `json:"action"`
	GatePass bool          `json:"gate_pass"`
	Signals  []SignalPoint `json:"signals,omitempty"`
	Combos   []Combo       `json:"combos,omitempty"`
	Triggers []string      `json:"triggers,omitempty"`
}

// keywordSignals maps lexicon rule IDs to prefilter signal IDs and
// point values. Points are coarser than engine weights on purpose: the
// gate only needs to separate "clearly worth a full pass" from noise.
var keywordSignals = []struct {
	RuleID string
	ID     string
	Points int
}{
	{"otp_request", "otp", 12},
	{"otp_relay", "otp-relay", 12},
	{"remote_app", "remote", 12},
	{"protected_account", "safe-account", 12},
	{"cash_pickup", "cash-pickup", 12},
	{"transfer_request", "transfer", 10},
	{"authority_impersonation", "authority", 10},
	{"install_app", "install", 10},
	{"apk_file", "install", 10},
	{"gift_card", "gift-card", 10},
	{"crypto_wallet", "crypto", 10},
	{"pii_request", "pii", 8},
	{"verify_account", "pii", 8},
	{"threat_pressure", "threat", 8},
	{"visit_place", "visit-place", 8},
	{"family_impersonation", "family", 8},
	{"anti_verification", "anti-verify", 8},
	{"investment_lure", "investment", 8},
	{"account_rental", "account-rental", 8},
	{"urgency", "urgency", 6},
	{"job_lure", "job-hook", 6},
	{"secrecy", "secrecy", 6},
	{"contact_move", "contact-move", 6},
	{"refund_lure", "refund", 6},
	{"loan_lure", "loan", 6},
	{"bank_claim", "bank-claim-context", 6},
	{"payment_request", "payment", 6},
	{"delivery_alert", "delivery", 4},
	{"first_contact", "first-contact", 4},
}

// scenarioHints run over the WHOLE thread text, not just the recent
// window, so a cue clipped off by the line window still opens the gate.
var scenarioHints = []*regexp.Regexp{
	regexp.MustCompile(`(검찰|경찰|수사관|금융감독원|금감원).{0,40}(출석|사건|조사|연루)`),
	regexp.MustCompile(`(OTP|(?i)\botp\b|인증\s*번호|보안\s*카드)`),
	regexp.MustCompile(`원격\s*(제어|지원|접속)|(?i)\b(teamviewer|anydesk)\b`),
	regexp.MustCompile(`안전\s*계좌|보호\s*계좌`),
	regexp.MustCompile(`(?i)\.apk\b`),
}

var reBankBrandWord = regexp.MustCompile(`(국민은행|신한은행|우리은행|하나은행|농협|기업은행|카카오뱅크|토스뱅크|(?i)\bKB\b|(?i)\bkbstar\b)`)

// Evaluate runs the gate on one thread. Pure and deterministic.
func Evaluate(threadText string, opts Options) Result {
	opts = opts.normalize()
	res := Result{Action: ActionNone}

	if strings.TrimSpace(threadText) == "" {
		return res
	}

	normalized := urlscan.NormalizeText(threadText)
	recent := recentSenderText(normalized, opts.RecentLines)

	best := make(map[string]SignalPoint)
	record := func(id string, points int, sample string) {
		if points <= 0 {
			return
		}
		if prev, ok := best[id]; !ok || points > prev.Points {
			best[id] = SignalPoint{ID: id, Points: points, Sample: sample}
		}
	}

	// URL-shape signals.
	rawURLs := urlscan.ExtractURLs(recent)
	hosts := make(map[string]bool)
	classify := func(raw, display string) {
		rep := urlscan.ClassifyURL(raw, recent, display)
		if rep.Host == "" {
			return
		}
		if allowed(rep.Host, opts.AllowHosts) || allowed(rep.Host, opts.BankAllowHosts) {
			return
		}
		hosts[rep.Host] = true
		if rep.OfficialHost {
			return
		}
		record("url", 6, rep.Raw)
		if rep.Shortener {
			record("shortener", 10, rep.Host)
		}
		if rep.IPHost {
			record("ip-host", 10, rep.Host)
		}
		if rep.Punycode {
			record("punycode", 10, rep.Host)
		}
		if rep.DeepSubdomain {
			record("deep-subdomain", 6, rep.Host)
		}
		if rep.RedirectParam {
			record("redirect-param", 8, rep.Raw)
		}
		if rep.DownloadExt {
			record("download-ext", 12, rep.Raw)
		}
		if rep.AtAuthority {
			record("at-sign", 8, rep.Raw)
		}
		if rep.Typosquat {
			record("bank-typosquat", 14, rep.Host)
		}
		if rep.Mismatch {
			record("link-mismatch", 10, rep.Raw)
		}
	}
	for _, raw := range rawURLs {
		classify(raw, "")
	}
	for _, lc := range opts.Links {
		classify(lc.Href, lc.Display)
	}
	if urlscan.HadInvisibles(threadText) {
		record("zero-width", 8, "")
	}
	if hasNonASCIIHost(hosts) {
		record("non-ascii-host", 8, "")
	}
	if len(hosts) >= 3 || len(rawURLs)+len(opts.Links) >= 4 {
		record("many-urls", 6, "")
	}
	if reBankBrandWord.MatchString(recent) {
		record("bank-brand", 4, "")
	}

	// Keyword-context signals over the recent sender text.
	catalog := rules.Default()
	for _, ks := range keywordSignals {
		r := catalog.Get(ks.RuleID)
		if r == nil {
			continue
		}
		if m := r.MatchDistinct(recent, 1); len(m) > 0 {
			record(ks.ID, ks.Points, m[0])
		}
	}

	urlPresent := len(hosts) > 0 || len(rawURLs) > 0 || len(opts.Links) > 0
	res.Signals = sortedSignals(best)
	res.Combos = comboBonuses(best, urlPresent, opts)

	score := 0
	for _, s := range res.Signals {
		score += s.Points
	}
	for _, c := range res.Combos {
		score += c.Points
	}
	if score > 100 {
		score = 100
	}

	// An observed open-URL action on a thread that carries a URL is
	// past the point of warning softly.
	if opts.Actions.OpenURL >= 1 && urlPresent {
		if score < opts.AutoThreshold {
			score = opts.AutoThreshold
		}
		res.Action = ActionAuto
	}

	res.Score = score
	if res.Action != ActionAuto {
		switch {
		case score >= opts.AutoThreshold:
			res.Action = ActionAuto
		case score >= opts.SoftThreshold:
			res.Action = ActionSoft
		}
	}

	for _, s := range res.Signals {
		res.Triggers = append(res.Triggers, s.ID)
	}
	for _, c := range res.Combos {
		res.Triggers = append(res.Triggers, c.ID)
	}

	gateMin := defaultGateMin
	if opts.SoftThreshold < gateMin {
		gateMin = opts.SoftThreshold
	}
	res.GatePass = urlPresent || len(res.Signals) > 0 || len(res.Combos) > 0 ||
		score >= gateMin || anyScenarioHint(normalized)

	return res
}

// comboBonuses awards pair bonuses for signal combinations.
var comboDefs = []struct {
	ID     string
	Points int
	A, B   []string
}{
	{"url-otp", 10, []string{"url", "shortener"}, []string{"otp", "otp-relay"}},
	{"remote-otp", 14, []string{"remote"}, []string{"otp", "otp-relay"}},
	{"safe-account-transfer", 14, []string{"safe-account"}, []string{"transfer", "payment"}},
	{"transfer-pressure", 10, []string{"transfer", "payment"}, []string{"threat", "urgency"}},
	{"install-pressure", 10, []string{"install", "remote"}, []string{"threat", "urgency"}},
	{"shortener-otp", 12, []string{"shortener"}, []string{"otp", "otp-relay"}},
	{"mismatch-action", 12, []string{"link-mismatch", "bank-typosquat"}, []string{"transfer", "otp", "otp-relay", "install", "pii"}},
}

func comboBonuses(best map[string]SignalPoint, urlPresent bool, opts Options) []Combo {
	has := func(ids []string) bool {
		for _, id := range ids {
			if _, ok := best[id]; ok {
				return true
			}
		}
		return false
	}

	var out []Combo
	for _, cd := range comboDefs {
		if has(cd.A) && has(cd.B) {
			out = append(out, Combo{ID: cd.ID, Points: cd.Points})
		}
	}
	if opts.UnknownContact && urlPresent {
		out = append(out, Combo{ID: "unknown-contact-url", Points: 8})
	}
	return out
}

// recentSenderText keeps the last n lines, dropping lines labeled as
// the receiving side. A victim echoing a requested secret back must
// never score as sender evidence.
func recentSenderText(text string, n int) string {
	lines := strings.Split(text, "\n")
	var kept []string
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		if reOwnLine.MatchString(ln) {
			continue
		}
		kept = append(kept, ln)
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

var reOwnLine = regexp.MustCompile(`(?i)^\s*(U|R|나|me|수신|receiver)\s*[:：]`)

func anyScenarioHint(text string) bool {
	for _, re := range scenarioHints {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func allowed(host string, allow []string) bool {
	for _, a := range allow {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func hasNonASCIIHost(hosts map[string]bool) bool {
	for h := range hosts {
		for _, r := range h {
			if r > 127 {
				return true
			}
		}
	}
	return false
}

func sortedSignals(best map[string]SignalPoint) []SignalPoint {
	out := make([]SignalPoint, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	// Stable output order: points desc, then ID.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ID < out[j].ID
	})
	return out
}
