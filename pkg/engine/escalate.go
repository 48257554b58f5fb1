package engine

import "regexp"

// SubSignals are the named boolean sub-signals the escalation circuit
// works with. Each is derived from rule IDs present in the scope's
// hits plus a few raw-text probes, and each is independently testable.
type SubSignals struct {
	HasRemote         bool
	HasInstall        bool
	HasOTP            bool
	HasOTPDemand      bool
	HasLinkAny        bool
	HasAuthority      bool
	HasThreat         bool
	HasUrgency        bool
	HasTransfer       bool
	HasTransferDemand bool
	HasCashPickup     bool
	HasPaymentAlways  bool
	HasVisitPlace     bool
	HasPIIRequest     bool
	HasJobHook        bool
	HasInvestment     bool
	HasFamilyScam     bool
	HasContactMove    bool
	HasFirstContact   bool
	HasSecrecy        bool
	HasAntiVerify     bool
	HasMoneyWord      bool
	MaliciousURL      bool
	BenignSupport     bool
	AlertOnly         bool
	AdviceOnly        bool
}

var (
	reMoneyInstruction = regexp.MustCompile(`\d[\d,.]*\s*(만\s*원|원|₩)|(?i)\$\s*\d|(?i)\b\d+\s*(won|usd|dollars?)\b`)
	reStrongPayWord    = regexp.MustCompile(`(이체|송금|입금|결제|납부|(?i)\b(pay|transfer|wire)\b)`)
)

// ComputeSubSignals derives the named booleans from the scope's
// dampened hits and concatenated in-scope text.
func ComputeSubSignals(hits []Hit, scopeText string) SubSignals {
	s := newHitSet(hits, scopeText)

	ss := SubSignals{
		HasRemote:       s.has("remote_app") || reRawRemote.MatchString(scopeText),
		HasInstall:      s.has("install_app", "apk_file", "url_download_ext", "install_before_pay"),
		HasOTP:          s.has("otp_request", "otp_relay", "otp_relay_ctx"),
		HasOTPDemand:    s.has("otp_relay", "otp_relay_ctx"),
		HasLinkAny:      s.has("url_plain_http", "url_shortener", "url_ip_host", "url_punycode", "url_deep_subdomain", "url_download_ext", "url_at_authority", "url_redirect_param", "url_typosquat", "url_mismatch") || len(urlIDsPresent(hits)) > 0,
		HasAuthority:    s.has("authority_impersonation", "authority_selfref", "bank_claim"),
		HasThreat:       s.has("threat_pressure"),
		HasUrgency:      s.has("urgency"),
		HasTransfer:     s.has("transfer_request", "protected_account", "payment_amount_demand"),
		HasTransferDemand: s.has("payment_amount_demand") || (s.has("transfer_request") && s.demand()),
		HasCashPickup:   s.has("cash_pickup", "atm_visit"),
		HasPaymentAlways: s.has(paymentAlwaysRules...),
		HasVisitPlace:   s.has("visit_place"),
		HasPIIRequest:   s.has("pii_request", "verify_account"),
		HasJobHook:      s.has("job_lure", "travel_lure"),
		HasInvestment:   s.has("investment_lure"),
		HasFamilyScam:   s.has("family_impersonation"),
		HasContactMove:  s.has("contact_move"),
		HasFirstContact: s.has("first_contact"),
		HasSecrecy:      s.has("secrecy"),
		HasAntiVerify:   s.has("anti_verification"),
		HasMoneyWord:    reMoneyInstruction.MatchString(scopeText) && reStrongPayWord.MatchString(scopeText),
		AlertOnly:       s.paymentAlertOnly(),
	}

	ss.MaliciousURL = s.has("url_typosquat", "url_download_ext", "url_mismatch")

	// Benign support context: the thread recommends the official
	// channel and demands nothing concrete itself.
	ss.BenignSupport = s.has("advice_official") && !s.demand() && !ss.MaliciousURL
	ss.AdviceOnly = ss.BenignSupport && !ss.HasTransferDemand && !ss.HasOTPDemand && !ss.HasInstall

	return ss
}

func urlIDsPresent(hits []Hit) []string {
	var out []string
	for _, h := range hits {
		if len(h.RuleID) > 4 && h.RuleID[:4] == "url_" {
			out = append(out, h.RuleID)
		}
	}
	return out
}

// actionDemand is Gate A: a concrete action-demand signal.
func (ss SubSignals) actionDemand() bool {
	return ss.HasOTPDemand || ss.HasTransferDemand || ss.HasInstall ||
		ss.HasRemote || ss.HasPaymentAlways || ss.HasCashPickup ||
		(ss.HasVisitPlace && (ss.HasAuthority || ss.HasMoneyWord))
}

// corroboratingClue is Gate B: at least one supporting clue.
func (ss SubSignals) corroboratingClue() bool {
	return ss.HasAuthority || ss.HasThreat || ss.HasUrgency ||
		ss.HasFirstContact || ss.HasSecrecy || ss.HasAntiVerify ||
		ss.HasMoneyWord
}

// structuralMatch is one named hard-high row. Rows are declarative so
// each predicate is unit-testable on its own; the evaluator just
// iterates.
type structuralMatch struct {
	Name string
	When func(ss SubSignals) bool
}

var hardHighTable = []structuralMatch{
	{"remote-and-otp", func(ss SubSignals) bool { return ss.HasRemote && ss.HasOTP }},
	{"install-link-clue", func(ss SubSignals) bool { return ss.HasInstall && ss.HasLinkAny && ss.corroboratingClue() }},
	{"otp-authority", func(ss SubSignals) bool { return ss.HasOTP && ss.HasAuthority }},
	{"otp-link-demand", func(ss SubSignals) bool { return ss.HasOTPDemand && ss.HasLinkAny }},
	{"family-scam-payment", func(ss SubSignals) bool { return ss.HasFamilyScam && (ss.HasTransfer || ss.HasPaymentAlways) }},
	{"job-scam-pii", func(ss SubSignals) bool { return ss.HasJobHook && ss.HasPIIRequest }},
	{"payment-clue", func(ss SubSignals) bool { return ss.HasPaymentAlways && ss.corroboratingClue() }},
	{"investment-link-action", func(ss SubSignals) bool { return ss.HasInvestment && ss.HasLinkAny && ss.actionDemand() }},
	{"visit-lure-contact-money", func(ss SubSignals) bool {
		return ss.HasVisitPlace && (ss.HasJobHook || ss.HasInvestment) && ss.HasContactMove && (ss.HasMoneyWord || ss.HasCashPickup)
	}},
	{"transfer-demand-clue", func(ss SubSignals) bool { return ss.HasTransferDemand && ss.corroboratingClue() }},
	{"cash-pickup-clue", func(ss SubSignals) bool { return ss.HasCashPickup && ss.corroboratingClue() }},
	{"job-lure-contact-move", func(ss SubSignals) bool {
		return ss.HasJobHook && ss.HasContactMove && (ss.HasVisitPlace || ss.HasTransfer || ss.HasPaymentAlways)
	}},
}

// Escalation is the circuit's full output.
type Escalation struct {
	HardHigh   bool
	Matches    []string // names of structural rows that fired
	SubSignals []string
	Demotions  []string
	RiskLevel  RiskLevel
}

// Escalate combines the dampened score with the structural boolean
// circuit. riskLevel "high" is reachable only through hardHigh; the
// dampened score alone never escalates past medium.
func Escalate(scoreTotal float64, ss SubSignals, opts *ScoringOptions) Escalation {
	esc := Escalation{SubSignals: namedSubSignals(ss)}

	gateA := ss.actionDemand()
	gateB := ss.corroboratingClue()

	if gateA && !ss.BenignSupport {
		if ss.MaliciousURL {
			esc.HardHigh = true
			esc.Matches = append(esc.Matches, "confirmed-malicious-url")
		}
		if gateB {
			for _, row := range hardHighTable {
				if row.When(ss) {
					esc.HardHigh = true
					esc.Matches = append(esc.Matches, row.Name)
				}
			}
		}
	}

	switch {
	case esc.HardHigh:
		esc.RiskLevel = RiskHigh
	case scoreTotal >= opts.MediumThreshold:
		esc.RiskLevel = RiskMedium
	default:
		esc.RiskLevel = RiskLow
	}

	// Deterministic demotions, applied after the circuit.
	if ss.AdviceOnly {
		esc.RiskLevel = RiskLow
		esc.HardHigh = false
		esc.Demotions = append(esc.Demotions, "advice-only")
	}
	if esc.RiskLevel == RiskHigh && ss.AlertOnly && ss.HasLinkAny &&
		!ss.HasOTP && !ss.HasThreat && !ss.HasUrgency && !ss.HasMoneyWord {
		esc.RiskLevel = RiskMedium
		esc.HardHigh = false
		esc.Demotions = append(esc.Demotions, "alert-with-link")
	}
	if esc.RiskLevel == RiskHigh && (ss.HasRemote || ss.HasInstall) &&
		!ss.HasTransfer && !ss.HasPaymentAlways && !ss.HasOTP &&
		!ss.HasThreat && !ss.HasAuthority {
		esc.RiskLevel = RiskMedium
		esc.HardHigh = false
		esc.Demotions = append(esc.Demotions, "uncorroborated-remote")
	}

	return esc
}

// namedSubSignals lists the sub-signal names that fired, for the
// analysis report and the similarity fingerprint.
func namedSubSignals(ss SubSignals) []string {
	var out []string
	add := func(name string, on bool) {
		if on {
			out = append(out, name)
		}
	}
	add("has-remote", ss.HasRemote)
	add("has-install", ss.HasInstall)
	add("has-otp", ss.HasOTP)
	add("has-otp-demand", ss.HasOTPDemand)
	add("has-link-any", ss.HasLinkAny)
	add("has-authority", ss.HasAuthority)
	add("has-threat", ss.HasThreat)
	add("has-urgency", ss.HasUrgency)
	add("has-transfer", ss.HasTransfer)
	add("has-transfer-demand", ss.HasTransferDemand)
	add("has-cash-pickup", ss.HasCashPickup)
	add("has-payment-always", ss.HasPaymentAlways)
	add("has-visit-place", ss.HasVisitPlace)
	add("has-pii-request", ss.HasPIIRequest)
	add("has-job-hook", ss.HasJobHook)
	add("has-investment", ss.HasInvestment)
	add("has-family-scam", ss.HasFamilyScam)
	add("has-contact-move", ss.HasContactMove)
	add("has-first-contact", ss.HasFirstContact)
	add("has-secrecy", ss.HasSecrecy)
	add("has-anti-verify", ss.HasAntiVerify)
	add("has-money-instruction", ss.HasMoneyWord)
	add("confirmed-malicious-url", ss.MaliciousURL)
	add("benign-support", ss.BenignSupport)
	add("alert-only", ss.AlertOnly)
	return out
}
