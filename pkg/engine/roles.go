package engine

import (
	"regexp"
	"strings"
)

var (
	// Comply cues: short acknowledgements, past-tense completion, or a
	// bare sensitive-data-shaped token (a victim echoing the secret).
	reAckShort    = regexp.MustCompile(`^(네|넵|예|응|알겠습니다|알겠어요|확인했어요|ok|okay|yes|done|sure)[.!~ ]*$`)
	rePastTense   = regexp.MustCompile(`(했어요|했습니다|보냈어요|보냈습니다|입력했|설치했|이체했|송금했|(?i)i\s+(did|sent|paid|installed|transferred))`)
	reBareOTP     = regexp.MustCompile(`^\s*\d{4,8}\s*$`)
	reBareAccount = regexp.MustCompile(`^\s*\d{2,6}(-\d{2,8}){1,3}\s*$`)

	// Demand cues: imperative pay/install/relay phrasing.
	reDemandVerb = regexp.MustCompile(`(하세요|해주세요|해야\s*합니다|바랍니다|주세요|(?i)\b(please|must|now|immediately)\b)`)
)

// ClassifyRoles assigns an actor hint to every turn and resolves the
// threat-scope inclusion rule:
//
//   - If any turn carries an explicit speaker label, only sender turns
//     (plus unlabeled demand turns) are eligible for threat scope.
//   - If no turn is labeled, every non-comply turn is eligible.
//
// This keeps a victim's compliant reply, which often repeats the
// requested secret verbatim, from inflating the attacker-signal score.
// The returned eligibility slice is ANDed with the window selection by
// the caller.
func ClassifyRoles(turns []Turn) []bool {
	hasLabels := false
	for i := range turns {
		turns[i].Hint = classifyHint(turns[i].Raw)
		if turns[i].Role != RoleUnknown {
			hasLabels = true
		}
	}

	eligible := make([]bool, len(turns))
	for i := range turns {
		t := &turns[i]
		if hasLabels {
			eligible[i] = t.Role == RoleSender ||
				(t.Role == RoleUnknown && t.Hint == HintDemand)
		} else {
			eligible[i] = t.Hint != HintComply
		}
	}
	return eligible
}

func classifyHint(text string) ActorHint {
	trimmed := strings.TrimSpace(strings.ToLower(text))
	if reAckShort.MatchString(trimmed) || reBareOTP.MatchString(trimmed) ||
		reBareAccount.MatchString(trimmed) || rePastTense.MatchString(text) {
		return HintComply
	}

	demand := false
	switch {
	case reStrongOTPRelay.MatchString(text),
		reStrongInstall.MatchString(text),
		rePayImperative.MatchString(text) && reDemandVerb.MatchString(text):
		demand = true
	}
	if demand {
		return HintDemand
	}
	return HintNeutral
}
