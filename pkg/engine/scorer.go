package engine

import (
	"regexp"

	"github.com/guardline/scamgate/pkg/rules"
	"github.com/guardline/scamgate/pkg/urlscan"
)

// maxDistinctMultiplier caps the distinct-match multiplier on one rule
// within one turn.
const maxDistinctMultiplier = 3

// URL-derived hit weights, by synthetic rule ID. These share the Hit
// shape with lexicon rules so the aggregator and escalation circuit
// treat them uniformly.
var urlHitWeights = map[string]struct {
	label  string
	weight float64
}{
	"url_plain_http":     {"plaintext HTTP link", 3},
	"url_shortener":      {"link shortener", 8},
	"url_ip_host":        {"raw-IP host link", 8},
	"url_punycode":       {"punycode host link", 8},
	"url_deep_subdomain": {"deep subdomain link", 5},
	"url_download_ext":   {"executable/archive link", 10},
	"url_at_authority":   {"@-authority hidden link", 6},
	"url_redirect_param": {"redirect-parameter chain", 6},
	"url_typosquat":      {"brand typosquat link", 12},
	"url_mismatch":       {"display/actual link mismatch", 9},
}

// Proximity detectors: fixed-weight context combinations that single
// keyword rules cannot express.
var (
	reSelfRef       = regexp.MustCompile(`(입니다|인데요|입니다만|(?i)\bthis\s+is\b|(?i)\bi\s+am\b|(?i)^i'?m\b)`)
	reRelayVerb     = regexp.MustCompile(`(알려|보내|불러|전달|읽어|(?i)\b(tell|send|read|forward|give)\b)`)
	reOTPCue        = regexp.MustCompile(`((?i)\botp\b|인증\s*번호|승인\s*번호|(?i)verification\s+code|(?i)one[- ]?time)`)
	reAmount        = regexp.MustCompile(`\d[\d,.]*\s*(만\s*원|천\s*원|원|달러|만원|₩|\$|(?i)won|(?i)usd|(?i)dollars?)`)
	rePayImperative = regexp.MustCompile(`((이체|송금|입금|결제|납부)\s*(해|하세요|해주|부탁|바랍)|(?i)\b(send|transfer|pay|wire)\b)`)
	reInstallCue    = regexp.MustCompile(`((앱|어플|프로그램)[을를]?\s*(설치|깔)|설치해|(?i)\binstall\b|(?i)\bdownload\b)`)
	rePayCue        = regexp.MustCompile(`(이체|송금|입금|결제|납부|(?i)\b(pay|transfer|payment)\b)`)
	reAuthorityCue  = regexp.MustCompile(`(검찰|검사|경찰|수사관|금융\s*감독원|금감원|국세청|보안\s*팀|은행|(?i)prosecutor|(?i)police|(?i)security\s+team|(?i)\bbank\b)`)
)

type proximityDetector struct {
	id     string
	label  string
	stage  rules.Stage
	weight float64
	match  func(text string) bool
}

var proximityDetectors = []proximityDetector{
	{
		id: "authority_selfref", label: "authority self-introduction",
		stage: rules.StageVerify, weight: 6,
		match: func(t string) bool {
			return reAuthorityCue.MatchString(t) && reSelfRef.MatchString(t)
		},
	},
	{
		id: "otp_relay_ctx", label: "OTP cue with relay verb",
		stage: rules.StageVerify, weight: 8,
		match: func(t string) bool {
			return reOTPCue.MatchString(t) && reRelayVerb.MatchString(t)
		},
	},
	{
		id: "payment_amount_demand", label: "payment imperative with amount",
		stage: rules.StagePayment, weight: 8,
		match: func(t string) bool {
			return rePayImperative.MatchString(t) && reAmount.MatchString(t)
		},
	},
	{
		id: "install_before_pay", label: "install demanded before payment",
		stage: rules.StageInstall, weight: 6,
		match: func(t string) bool {
			im := reInstallCue.FindStringIndex(t)
			pm := rePayCue.FindStringIndex(t)
			return im != nil && pm != nil && im[0] < pm[0]
		},
	},
}

// ScoreTurn is the pure message scorer: it applies every catalog rule,
// the URL heuristics and the proximity detectors to one turn's text
// and fills the turn's URLs, Hits, Score and Stage. No side effects
// beyond the passed turn.
func ScoreTurn(t *Turn, opts *ScoringOptions) {
	text := urlscan.NormalizeText(t.Raw)

	var lexSum float64
	for _, r := range opts.Catalog.All() {
		matches := r.MatchDistinct(text, maxDistinctMultiplier)
		if len(matches) == 0 {
			continue
		}
		w := opts.ruleWeight(r) * float64(len(matches))
		h := Hit{
			RuleID:    r.ID,
			Label:     r.Label,
			Stage:     r.Stage,
			StageName: r.Stage.String(),
			Weight:    w,
			Matches:   matches,
			Sample:    matches[0],
		}
		t.Hits = append(t.Hits, h)
		lexSum += w
	}

	for _, d := range proximityDetectors {
		if !d.match(text) {
			continue
		}
		t.Hits = append(t.Hits, Hit{
			RuleID:    d.id,
			Label:     d.label,
			Stage:     d.stage,
			StageName: d.stage.String(),
			Weight:    d.weight,
		})
		lexSum += d.weight
	}

	t.URLs = urlscan.ScanText(t.Raw)
	urlHits := urlHitsFor(t.URLs)

	// URL threat weight on one turn is capped at URLMultiplierCap times
	// the lexicon weight (floored so a bare malicious link still
	// scores). Keeps a link farm from drowning the lexicon signal.
	var urlSum float64
	for _, h := range urlHits {
		urlSum += h.Weight
	}
	capBase := lexSum
	if capBase < 10 {
		capBase = 10
	}
	if urlSum > capBase*opts.URLMultiplierCap {
		scale := capBase * opts.URLMultiplierCap / urlSum
		for i := range urlHits {
			urlHits[i].Weight = round2(urlHits[i].Weight * scale)
		}
	}
	t.Hits = append(t.Hits, urlHits...)

	t.Score = 0
	t.Stage = rules.StageInfo
	for _, h := range t.Hits {
		t.Score += h.Weight
		if stageRank(h.Stage) > stageRank(t.Stage) && h.Weight > 0 {
			t.Stage = h.Stage
		}
	}
}

// urlHitsFor converts URL reports into hits, one per flag kind, using
// the worst example of each kind across the turn's URLs.
func urlHitsFor(reports []urlscan.Report) []Hit {
	fired := make(map[string]string) // id -> sample URL
	mark := func(id, sample string) {
		if _, ok := fired[id]; !ok {
			fired[id] = sample
		}
	}
	for _, r := range reports {
		if r.PlainHTTP {
			mark("url_plain_http", r.Raw)
		}
		if r.Shortener {
			mark("url_shortener", r.Raw)
		}
		if r.IPHost {
			mark("url_ip_host", r.Raw)
		}
		if r.Punycode {
			mark("url_punycode", r.Raw)
		}
		if r.DeepSubdomain {
			mark("url_deep_subdomain", r.Raw)
		}
		if r.DownloadExt {
			mark("url_download_ext", r.Raw)
		}
		if r.AtAuthority {
			mark("url_at_authority", r.Raw)
		}
		if r.RedirectParam {
			mark("url_redirect_param", r.Raw)
		}
		if r.Typosquat {
			mark("url_typosquat", r.Raw)
		}
		if r.Mismatch {
			mark("url_mismatch", r.Raw)
		}
	}

	// Fixed emission order keeps analysis output deterministic.
	order := []string{
		"url_plain_http", "url_shortener", "url_ip_host", "url_punycode",
		"url_deep_subdomain", "url_download_ext", "url_at_authority",
		"url_redirect_param", "url_typosquat", "url_mismatch",
	}
	hits := make([]Hit, 0, len(fired))
	for _, id := range order {
		sample, ok := fired[id]
		if !ok {
			continue
		}
		def := urlHitWeights[id]
		hits = append(hits, Hit{
			RuleID:    id,
			Label:     def.label,
			Stage:     rules.StageVerify,
			StageName: rules.StageVerify.String(),
			Weight:    def.weight,
			Sample:    sample,
		})
	}
	return hits
}
