package engine

import "testing"

func TestClassifyRolesLabeledThread(t *testing.T) {
	turns := ParseThread(`S: 인증번호를 알려주세요
R: 483920
U: 앱을 설치하세요`)

	eligible := ClassifyRoles(turns)

	if !eligible[0] {
		t.Error("labeled sender turn not eligible")
	}
	if eligible[1] {
		t.Error("labeled receiver turn eligible")
	}
	// Unlabeled turns join the scope only when they carry a demand.
	if !eligible[2] {
		t.Error("unknown-role demand turn not eligible")
	}
}

func TestClassifyRolesUnlabeledThread(t *testing.T) {
	turns := ParseThread(`안전계좌로 이체하세요
알겠습니다
이체했습니다`)

	eligible := ClassifyRoles(turns)

	if !eligible[0] {
		t.Error("demand turn not eligible")
	}
	if eligible[1] {
		t.Error("short acknowledgement eligible")
	}
	if eligible[2] {
		t.Error("past-tense completion eligible")
	}
}

func TestClassifyHintBareSecrets(t *testing.T) {
	// A victim echoing the secret verbatim is compliance, not threat.
	cases := []struct {
		text string
		want ActorHint
	}{
		{"483920", HintComply},
		{"110-234-567890", HintComply},
		{"네", HintComply},
		{"송금했습니다", HintComply},
		{"오늘 날씨가 좋네요", HintNeutral},
		{"인증번호를 알려주세요", HintDemand},
	}
	for _, tc := range cases {
		if got := classifyHint(tc.text); got != tc.want {
			t.Errorf("classifyHint(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}
