package semantic

import (
	"context"
	"testing"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "인증번호를 불러주세요")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := e.Embed(ctx, "인증번호를 불러주세요")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if len(a) != 64 || e.Dimension() != 64 {
		t.Fatalf("dimension = %d/%d, want 64", len(a), e.Dimension())
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d: %f vs %f", i, a[i], b[i])
		}
	}

	var norm float64
	for _, x := range a {
		norm += float64(x) * float64(x)
	}
	if norm < 0.99 || norm > 1.01 {
		t.Errorf("squared norm = %f, want ~1 (L2 normalized)", norm)
	}
}

func TestHashEmbedderDefaultDimension(t *testing.T) {
	if e := NewHashEmbedder(0); e.Dimension() != 128 {
		t.Errorf("Dimension = %d, want fallback 128", e.Dimension())
	}
}

func TestNewDetectorRequiresEmbedder(t *testing.T) {
	if _, err := NewDetector(nil); err == nil {
		t.Error("NewDetector(nil) succeeded")
	}
}

func TestDetectBeforeLoadFails(t *testing.T) {
	d, err := NewDetector(NewHashEmbedder(64))
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	if d.IsReady() {
		t.Error("IsReady = true before LoadExemplars")
	}
	if _, err := d.Detect(context.Background(), "테스트"); err == nil {
		t.Error("Detect succeeded on an unloaded detector")
	}
}

func TestDetectExactExemplar(t *testing.T) {
	d, err := NewDetector(NewHashEmbedder(256))
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	ctx := context.Background()

	corpus := []Exemplar{
		{Text: "본인 확인을 위해 방금 전송된 인증번호를 불러주세요", Category: "otp_relay", Language: "ko", Risk: 0.95},
		{Text: "보안 점검을 위해 원격 제어 앱을 설치해 주세요", Category: "remote_control", Language: "ko", Risk: 0.9},
		{Text: "회의 자료 공유드립니다. 검토 후 의견 부탁드려요", Category: "benign", Language: "ko", Risk: 0.0},
	}
	if err := d.LoadExemplars(ctx, corpus); err != nil {
		t.Fatalf("LoadExemplars: %v", err)
	}
	if !d.IsReady() {
		t.Fatal("IsReady = false after LoadExemplars")
	}

	res, err := d.Detect(ctx, "본인 확인을 위해 방금 전송된 인증번호를 불러주세요")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Category != "otp_relay" {
		t.Errorf("Category = %s, want otp_relay", res.Category)
	}
	if !res.IsThreat {
		t.Errorf("IsThreat = false at similarity %.3f", res.Score)
	}
	if res.Score < DefaultThreshold {
		t.Errorf("Score = %.3f, want >= %.3f for a verbatim exemplar", res.Score, DefaultThreshold)
	}
	if len(res.TopMatches) == 0 {
		t.Error("TopMatches empty")
	}
}

func TestDetectBenignBestMatch(t *testing.T) {
	d, err := NewDetector(NewHashEmbedder(256))
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	ctx := context.Background()

	corpus := []Exemplar{
		{Text: "회의 자료 공유드립니다. 검토 후 의견 부탁드려요", Category: "benign", Language: "ko", Risk: 0.0},
		{Text: "감사합니다 좋은 하루 보내세요", Category: "benign", Language: "ko", Risk: 0.0},
		{Text: "전문가 리딩방에서 수익률 300% 보장해 드립니다", Category: "investment_scam", Language: "ko", Risk: 0.8},
	}
	if err := d.LoadExemplars(ctx, corpus); err != nil {
		t.Fatalf("LoadExemplars: %v", err)
	}

	res, err := d.Detect(ctx, "회의 자료 공유드립니다. 검토 후 의견 부탁드려요")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.IsThreat {
		t.Errorf("IsThreat = true for a verbatim benign exemplar (category %s, score %.3f)", res.Category, res.Score)
	}
	if res.Category != "benign" {
		t.Errorf("Category = %s, want benign", res.Category)
	}
}

func TestSetThreshold(t *testing.T) {
	d, err := NewDetector(NewHashEmbedder(256))
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	ctx := context.Background()

	corpus := []Exemplar{
		{Text: "안전계좌로 자금을 이동해 주셔야 합니다", Category: "safe_account", Language: "ko", Risk: 0.95},
		{Text: "원격 제어 앱을 설치해 주세요", Category: "remote_control", Language: "ko", Risk: 0.9},
		{Text: "주문하신 상품이 발송되었습니다", Category: "benign", Language: "ko", Risk: 0.0},
	}
	if err := d.LoadExemplars(ctx, corpus); err != nil {
		t.Fatalf("LoadExemplars: %v", err)
	}

	// An impossible threshold turns every match into a non-threat.
	d.SetThreshold(1.01)
	res, err := d.Detect(ctx, "안전계좌로 자금을 이동해 주셔야 합니다")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.IsThreat {
		t.Error("IsThreat = true above an unreachable threshold")
	}
}

func TestBuiltinExemplarsCoverBothLanguages(t *testing.T) {
	ex := builtinExemplars()
	if len(ex) < 3 {
		t.Fatalf("builtin corpus has %d exemplars, want enough to query", len(ex))
	}

	langs := make(map[string]bool)
	benign := 0
	for _, e := range ex {
		langs[e.Language] = true
		if e.Category == "benign" {
			benign++
			if e.Risk != 0 {
				t.Errorf("benign exemplar %q carries risk %.2f", e.Text, e.Risk)
			}
		}
	}
	if !langs["ko"] || !langs["en"] {
		t.Errorf("languages = %v, want ko and en", langs)
	}
	if benign == 0 {
		t.Error("no benign exemplars; the benign-best-match guard is untestable in production")
	}
}
