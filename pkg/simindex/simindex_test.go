package simindex

import (
	"math"
	"testing"

	"github.com/guardline/scamgate/pkg/engine"
)

func TestFingerprintTopKAndNormalization(t *testing.T) {
	signals := []engine.Signal{
		{ID: "otp_request", WeightSum: 24},
		{ID: "urgency", WeightSum: 8},
		{ID: "bank_claim", WeightSum: 6},
	}

	v := Fingerprint(signals, 2)

	if len(v) != 2 {
		t.Fatalf("fingerprint size = %d, want 2", len(v))
	}
	if _, ok := v["bank_claim"]; ok {
		t.Error("lowest-weight signal survived the top-K cut")
	}
	if v["otp_request"] != 1.0 {
		t.Errorf("max entry = %.4f, want 1.0 after normalization", v["otp_request"])
	}
	want := math.Log1p(8) / math.Log1p(24)
	if math.Abs(v["urgency"]-want) > 1e-9 {
		t.Errorf("urgency = %.4f, want %.4f (log-scaled ratio)", v["urgency"], want)
	}
}

func TestFingerprintSkipsNonPositive(t *testing.T) {
	v := Fingerprint([]engine.Signal{
		{ID: "a", WeightSum: 0},
		{ID: "b", WeightSum: -3},
	}, 8)
	if len(v) != 0 {
		t.Errorf("fingerprint = %v, want empty for non-positive weights", v)
	}
}

func TestRankSimilarOrdersBysimilarity(t *testing.T) {
	ix := New(DefaultItems(), DefaultTopK)

	signals := []engine.Signal{
		{ID: "otp_request", WeightSum: 22},
		{ID: "otp_relay", WeightSum: 12},
		{ID: "verify_account", WeightSum: 9},
		{ID: "bank_claim", WeightSum: 6},
	}

	matches := ix.RankSimilar(signals, 3, 0.1)
	if len(matches) == 0 {
		t.Fatal("no matches for an OTP-relay profile")
	}
	if matches[0].ID != "otp-relay" {
		t.Errorf("top match = %s, want otp-relay", matches[0].ID)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Errorf("matches out of order at %d: %.3f > %.3f", i, matches[i].Similarity, matches[i-1].Similarity)
		}
	}
	if len(matches) > 3 {
		t.Errorf("got %d matches, want <= 3", len(matches))
	}
	for _, k := range matches[0].SharedKeys {
		if k == "" {
			t.Error("empty shared key")
		}
	}
}

func TestRankSimilarMinSimGate(t *testing.T) {
	ix := New(DefaultItems(), DefaultTopK)

	// A profile orthogonal to every playbook.
	signals := []engine.Signal{{ID: "travel_lure", WeightSum: 4}}

	if matches := ix.RankSimilar(signals, 8, 0.9); len(matches) != 0 {
		t.Errorf("matches = %v, want none above 0.9 similarity", matches)
	}
}

func TestRankSimilarEmptyInputs(t *testing.T) {
	ix := New(DefaultItems(), DefaultTopK)
	if m := ix.RankSimilar(nil, 8, 0.35); m != nil {
		t.Errorf("nil signals: matches = %v, want nil", m)
	}

	empty := New(nil, DefaultTopK)
	if empty.Len() != 0 {
		t.Errorf("empty index Len = %d", empty.Len())
	}
	sig := []engine.Signal{{ID: "urgency", WeightSum: 4}}
	if m := empty.RankSimilar(sig, 8, 0.35); m != nil {
		t.Errorf("empty index: matches = %v, want nil", m)
	}
}

func TestNewSkipsUnusableItems(t *testing.T) {
	ix := New([]Item{
		{ID: "", Signals: map[string]float64{"a": 1}},
		{ID: "no-signals"},
		{ID: "ok", Signals: map[string]float64{"a": 1}},
	}, 4)
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}

func TestFromYAML(t *testing.T) {
	data := []byte(`
- id: test-playbook
  category: smishing
  expected_risk: medium
  signals:
    delivery_alert: 4
    url_shortener: 8
`)
	ix, err := FromYAML(data, 8)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if ix.Len() != 1 {
		t.Fatalf("Len = %d, want 1", ix.Len())
	}

	matches := ix.RankSimilar([]engine.Signal{
		{ID: "delivery_alert", WeightSum: 4},
		{ID: "url_shortener", WeightSum: 8},
	}, 8, 0.35)
	if len(matches) != 1 || matches[0].ID != "test-playbook" {
		t.Errorf("matches = %v, want the loaded playbook", matches)
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("self-similarity = %.3f, want ~1.0", matches[0].Similarity)
	}
}

func TestFromJSONInvalid(t *testing.T) {
	if _, err := FromJSON([]byte("{not json"), 8); err == nil {
		t.Error("FromJSON accepted malformed input")
	}
}
