package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.ListenAddr != ":8820" {
		t.Errorf("ListenAddr = %s, want :8820", cfg.ListenAddr)
	}
	if cfg.PrefilterSoftThreshold != 28 || cfg.PrefilterAutoThreshold != 52 {
		t.Errorf("prefilter thresholds = %d/%d, want 28/52",
			cfg.PrefilterSoftThreshold, cfg.PrefilterAutoThreshold)
	}
	if cfg.MediumThreshold != 35 {
		t.Errorf("MediumThreshold = %.1f, want 35", cfg.MediumThreshold)
	}
	if cfg.WindowMode != "auto" {
		t.Errorf("WindowMode = %s, want auto", cfg.WindowMode)
	}
	if cfg.ResolverTimeout != 2500*time.Millisecond {
		t.Errorf("ResolverTimeout = %s, want 2.5s", cfg.ResolverTimeout)
	}
	if cfg.StoreBackend != StoreMemory {
		t.Errorf("StoreBackend = %s, want memory", cfg.StoreBackend)
	}
	if cfg.EnableResolver {
		t.Error("EnableResolver = true, want off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCAMGATE_LISTEN", ":9000")
	t.Setenv("SCAMGATE_PREFILTER_SOFT", "20")
	t.Setenv("SCAMGATE_MEDIUM_THRESHOLD", "40.5")
	t.Setenv("SCAMGATE_WINDOW_MODE", "rolling")
	t.Setenv("SCAMGATE_ENABLE_RESOLVER", "true")
	t.Setenv("SCAMGATE_ALLOW_HOSTS", "example.com, intra.corp ,")

	cfg := NewDefaultConfig()

	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %s", cfg.ListenAddr)
	}
	if cfg.PrefilterSoftThreshold != 20 {
		t.Errorf("PrefilterSoftThreshold = %d, want 20", cfg.PrefilterSoftThreshold)
	}
	if cfg.MediumThreshold != 40.5 {
		t.Errorf("MediumThreshold = %.1f, want 40.5", cfg.MediumThreshold)
	}
	if cfg.WindowMode != "rolling" {
		t.Errorf("WindowMode = %s, want rolling", cfg.WindowMode)
	}
	if !cfg.EnableResolver {
		t.Error("EnableResolver = false, want env override true")
	}
	if len(cfg.AllowHosts) != 2 || cfg.AllowHosts[0] != "example.com" || cfg.AllowHosts[1] != "intra.corp" {
		t.Errorf("AllowHosts = %v", cfg.AllowHosts)
	}
}

func TestEnvOverrideClamping(t *testing.T) {
	t.Setenv("SCAMGATE_PREFILTER_SOFT", "500")
	t.Setenv("SCAMGATE_ROLLING_SIZE", "-3")

	cfg := NewDefaultConfig()

	if cfg.PrefilterSoftThreshold != 100 {
		t.Errorf("PrefilterSoftThreshold = %d, want clamp to 100", cfg.PrefilterSoftThreshold)
	}
	if cfg.RollingSize != 1 {
		t.Errorf("RollingSize = %d, want clamp to 1", cfg.RollingSize)
	}
}

func TestEnvOverrideBadValuesFallBack(t *testing.T) {
	t.Setenv("SCAMGATE_PREFILTER_AUTO", "not-a-number")
	t.Setenv("SCAMGATE_ENABLE_SEMANTICS", "maybe")

	cfg := NewDefaultConfig()

	if cfg.PrefilterAutoThreshold != 52 {
		t.Errorf("PrefilterAutoThreshold = %d, want default 52", cfg.PrefilterAutoThreshold)
	}
	if !cfg.EnableSemantics {
		t.Error("EnableSemantics = false, want default true on unparseable value")
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.PrefilterSoftThreshold = 60
	cfg.PrefilterAutoThreshold = 40

	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted soft threshold above auto threshold")
	}
}

func TestValidateRejectsUnknownWindowMode(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.WindowMode = "bouncing"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an unknown window mode")
	}
}

func TestValidateRedisRequiresAddr(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.StoreBackend = StoreRedis
	cfg.RedisAddr = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted redis backend without an address")
	}
}

func TestOfflineConfig(t *testing.T) {
	cfg := NewOfflineConfig()
	if cfg.EnableResolver || cfg.EnableSemantics {
		t.Error("offline config left a network-dependent feature on")
	}
	if cfg.StoreBackend != StoreMemory {
		t.Errorf("StoreBackend = %s, want memory", cfg.StoreBackend)
	}
}

func TestHighSensitivityConfig(t *testing.T) {
	cfg := NewHighSensitivityConfig()
	if cfg.PrefilterSoftThreshold != 18 || cfg.PrefilterAutoThreshold != 40 {
		t.Errorf("thresholds = %d/%d, want 18/40", cfg.PrefilterSoftThreshold, cfg.PrefilterAutoThreshold)
	}
	if cfg.MediumThreshold != 25 {
		t.Errorf("MediumThreshold = %.1f, want 25", cfg.MediumThreshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("high sensitivity config invalid: %v", err)
	}
}

func TestLoadWeightOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := "otp_request: 15\nurgency: 2.5\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadWeightOverrides(path)
	if err != nil {
		t.Fatalf("LoadWeightOverrides: %v", err)
	}
	if got["otp_request"] != 15 || got["urgency"] != 2.5 {
		t.Errorf("overrides = %v", got)
	}
}

func TestLoadWeightOverridesMissingFile(t *testing.T) {
	if _, err := LoadWeightOverrides("/nonexistent/weights.yaml"); err == nil {
		t.Error("LoadWeightOverrides succeeded on a missing file")
	}
}

func TestGetEnvSliceDefault(t *testing.T) {
	got := GetEnvSlice("SCAMGATE_TEST_UNSET_SLICE", []string{"a"})
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("GetEnvSlice default = %v", got)
	}
}
