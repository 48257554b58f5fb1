package engine

import (
	"regexp"
	"sort"

	"github.com/guardline/scamgate/pkg/rules"
)

// Payment rule tiers for the stage ladder. Tier membership decides how
// much corroboration a payment promotion needs.
var (
	paymentAlwaysRules      = []string{"cash_pickup", "gift_card", "crypto_wallet", "account_rental", "qr_payment"}
	paymentConditionalRules = []string{"protected_account", "atm_visit", "payment_request", "payment_amount_demand"}
	paymentSoftRules        = []string{"transfer_request", "pay_link"}

	verifyStrongRules = []string{"otp_request", "otp_relay", "otp_relay_ctx", "verify_account", "pii_request",
		"url_shortener", "url_plain_http", "url_ip_host", "url_punycode", "url_typosquat",
		"url_redirect_param", "url_mismatch", "url_deep_subdomain", "url_at_authority"}
	verifyWeakRules = []string{"contact_move", "benefit_lure", "visit_place", "refund_lure", "loan_lure"}

	installHardRules = []string{"remote_app", "apk_file", "url_download_ext"}
)

var (
	reRawRemote  = regexp.MustCompile(`원격|(?i)\bremote\b`)
	reVerifyCue  = regexp.MustCompile(`(인증|확인|본인|(?i)\bverify\b|(?i)\bconfirm\b)`)
	reInstallPay = regexp.MustCompile(`설치[^\n]{0,30}(결제|이체|송금|납부)|(?i)install[^\n]{0,40}(pay|transfer)`)
)

// hitSet indexes hits by rule ID for the ladder probes.
type hitSet struct {
	byID map[string][]Hit
	text string
}

func newHitSet(hits []Hit, scopeText string) *hitSet {
	s := &hitSet{byID: make(map[string][]Hit), text: scopeText}
	for _, h := range hits {
		s.byID[h.RuleID] = append(s.byID[h.RuleID], h)
	}
	return s
}

func (s *hitSet) has(ids ...string) bool {
	for _, id := range ids {
		if len(s.byID[id]) > 0 {
			return true
		}
	}
	return false
}

func (s *hitSet) firstOf(ids ...string) []string {
	var out []string
	for _, id := range ids {
		if len(s.byID[id]) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// paymentAlertOnly reports whether payment wording in scope is pure
// notification (a charge alert) rather than a demand. Suppresses false
// payment promotion at the conditional and soft tiers.
func (s *hitSet) paymentAlertOnly() bool {
	if !s.has("payment_alert") {
		return false
	}
	return !s.has("payment_amount_demand") && !rePayImperative.MatchString(s.text)
}

// pressure is the demand/pressure corroborator for conditional payment
// promotion.
func (s *hitSet) pressure() bool {
	return s.has("urgency", "threat_pressure", "anti_verification", "secrecy")
}

// demand is a concrete action demand in scope.
func (s *hitSet) demand() bool {
	return s.has("otp_relay", "otp_relay_ctx", "payment_amount_demand", "install_app") ||
		rePayImperative.MatchString(s.text) && reDemandVerb.MatchString(s.text)
}

// ClassifyStage runs the ordered precedence ladder over a scope's hits
// and returns the stage plus the rule IDs that triggered it. It is an
// explicit precedence machine, not a max-weight pick: a hard install
// signal outranks any payment weight sum.
func ClassifyStage(hits []Hit, scopeText string) (rules.Stage, []string) {
	s := newHitSet(hits, scopeText)

	// (1) Hard install signals.
	if s.has(installHardRules...) || reRawRemote.MatchString(scopeText) {
		trig := s.firstOf(installHardRules...)
		if len(trig) == 0 {
			trig = []string{"remote_app"}
		}
		return rules.StageInstall, trig
	}

	// (2) Soft install: install mention plus escrow-style phrasing with
	// no strong pay cue, or explicit install-before-pay text.
	if s.has("install_app", "install_before_pay") {
		if (s.has("escrow_hold") && !s.has(paymentAlwaysRules...)) ||
			reInstallPay.MatchString(scopeText) {
			return rules.StageInstall, s.firstOf("install_app", "install_before_pay", "escrow_hold")
		}
	}

	// (3) Payment tiers.
	if s.has(paymentAlwaysRules...) {
		return rules.StagePayment, s.firstOf(paymentAlwaysRules...)
	}
	if !s.paymentAlertOnly() {
		if s.has(paymentConditionalRules...) {
			if s.demand() || s.pressure() {
				return rules.StagePayment, s.firstOf(paymentConditionalRules...)
			}
			return rules.StageVerify, s.firstOf(paymentConditionalRules...)
		}
		if s.has(paymentSoftRules...) {
			if s.demand() && s.pressure() {
				return rules.StagePayment, s.firstOf(paymentSoftRules...)
			}
			return rules.StageVerify, s.firstOf(paymentSoftRules...)
		}
	}

	// (4) Verify signals.
	if s.has(verifyStrongRules...) {
		return rules.StageVerify, s.firstOf(verifyStrongRules...)
	}
	if s.has(verifyWeakRules...) && reVerifyCue.MatchString(scopeText) {
		return rules.StageVerify, s.firstOf(verifyWeakRules...)
	}

	// (5) Default info: top-2 weighted info hits as triggers.
	return rules.StageInfo, topInfoTriggers(hits)
}

func topInfoTriggers(hits []Hit) []string {
	type agg struct {
		id string
		w  float64
	}
	sums := make(map[string]float64)
	var order []string
	for _, h := range hits {
		if h.Stage != rules.StageInfo || h.Weight <= 0 {
			continue
		}
		if _, ok := sums[h.RuleID]; !ok {
			order = append(order, h.RuleID)
		}
		sums[h.RuleID] += h.Weight
	}
	aggs := make([]agg, 0, len(order))
	for _, id := range order {
		aggs = append(aggs, agg{id, sums[id]})
	}
	sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].w > aggs[j].w })
	var out []string
	for i := 0; i < len(aggs) && i < 2; i++ {
		out = append(out, aggs[i].id)
	}
	return out
}
