package engine

import (
	"reflect"
	"strings"
	"testing"
)

const kbPhishingThread = `S: KB국민은행입니다. 고객님 계좌에 명의 도용이 확인되었습니다.
S: 본인 확인을 위해 방금 전송된 인증번호를 알려주세요.
R: 네`

func TestAnalyzeThreadOTPPhishing(t *testing.T) {
	res := AnalyzeThread(kbPhishingThread, CallContext{}, nil)

	if res.RiskLevel != RiskHigh {
		t.Errorf("RiskLevel = %s, want high", res.RiskLevel)
	}
	if !res.HardHigh {
		t.Error("HardHigh = false for OTP relay with bank impersonation")
	}
	if res.StagePeak != "verify" {
		t.Errorf("StagePeak = %s, want verify", res.StagePeak)
	}
	if res.ScoreTotal < 35 {
		t.Errorf("ScoreTotal = %.2f, want >= 35", res.ScoreTotal)
	}

	ids := make(map[string]bool)
	for _, h := range res.Hits {
		ids[h.RuleID] = true
	}
	for _, want := range []string{"otp_request", "otp_relay", "bank_claim"} {
		if !ids[want] {
			t.Errorf("missing hit %s (got %v)", want, keys(ids))
		}
	}

	// The receiver's compliant reply must stay out of scope.
	if len(res.Turns) != 3 {
		t.Fatalf("turn count = %d, want 3", len(res.Turns))
	}
	if res.Turns[2].InScope {
		t.Error("receiver acknowledgement included in threat scope")
	}
}

func TestAnalyzeThreadBenign(t *testing.T) {
	res := AnalyzeThread("안녕하세요, 문의사항 있으면 말씀해주세요.", CallContext{}, nil)

	if res.ScoreTotal != 0 {
		t.Errorf("ScoreTotal = %.2f, want 0", res.ScoreTotal)
	}
	if res.RiskLevel != RiskLow {
		t.Errorf("RiskLevel = %s, want low", res.RiskLevel)
	}
	if res.StagePeak != "info" {
		t.Errorf("StagePeak = %s, want info", res.StagePeak)
	}
	if len(res.Hits) != 0 {
		t.Errorf("Hits = %v, want none", res.Hits)
	}
}

func TestAnalyzeThreadEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n  \n"} {
		res := AnalyzeThread(text, CallContext{}, nil)
		if res.ScoreTotal != 0 || res.RiskLevel != RiskLow || len(res.Turns) != 0 {
			t.Errorf("AnalyzeThread(%q) = score %.2f risk %s turns %d, want neutral zero result",
				text, res.ScoreTotal, res.RiskLevel, len(res.Turns))
		}
	}
}

func TestAnalyzeThreadDeterministic(t *testing.T) {
	text := kbPhishingThread + "\nS: 안전계좌로 지금 500만원 이체하세요 https://kb-verify.xyz/app.apk"
	a := AnalyzeThread(text, CallContext{}, nil)
	b := AnalyzeThread(text, CallContext{}, nil)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different analyses")
	}
}

func TestAnalyzeThreadScoreClamp(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("S: 검찰입니다. 안전계좌로 지금 당장 500만원 이체하세요. 인증번호를 알려주세요.\n")
	}
	res := AnalyzeThread(sb.String(), CallContext{}, nil)
	if res.ScoreTotal > 100 {
		t.Errorf("ScoreTotal = %.2f, want <= 100", res.ScoreTotal)
	}
	if res.RiskLevel != RiskHigh {
		t.Errorf("RiskLevel = %s, want high", res.RiskLevel)
	}
}

func TestAnalyzeThreadStageEscalatesToPayment(t *testing.T) {
	text := `S: 본인 확인을 위해 인증번호를 알려주세요
S: 확인됐습니다. 이제 안전계좌로 300만원 이체하세요`
	res := AnalyzeThread(text, CallContext{}, nil)
	if res.StagePeak != "payment" {
		t.Errorf("StagePeak = %s, want payment", res.StagePeak)
	}
}

func TestAnalyzeThreadAdviceOnlyStaysLow(t *testing.T) {
	text := `S: 그런 문자는 사기일 수 있어요
S: 은행 고객센터로 직접 문의하세요. 112에 신고하세요`
	res := AnalyzeThread(text, CallContext{}, nil)
	if res.RiskLevel == RiskHigh {
		t.Errorf("RiskLevel = %s for official-channel advice, want below high", res.RiskLevel)
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
