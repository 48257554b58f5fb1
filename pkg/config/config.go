package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreBackend selects where thread state lives.
type StoreBackend string

const (
	StoreMemory StoreBackend = "memory" // Single-node in-memory store (default)
	StoreRedis  StoreBackend = "redis"  // Shared Redis store for multi-instance deployments
)

// Config holds global settings for the gateway.
// All settings can be configured via environment variables or programmatically.
type Config struct {
	// === Core Settings ===
	ListenAddr string // HTTP listen address (default: ":8820")

	// === Prefilter Thresholds (0-100) ===
	PrefilterSoftThreshold int // Score above this = soft warning (default: 28)
	PrefilterAutoThreshold int // Score above this = automatic full analysis (default: 52)

	// === Engine Settings ===
	MediumThreshold float64 // Dampened score for a "medium" verdict (default: 35)
	WindowMode      string  // Context window mode: "auto", "rolling", "sticky"
	RollingSize     int     // Rolling window size in turns (default: 20)
	StickyCap       int     // Sticky window cap in turns (default: 160)
	WeightOverrides string  // Path to a YAML rule-weight override file (optional)
	SimilarityIndex string  // Path to a YAML/JSON playbook index file (optional)
	SemanticCorpus  string  // Path to a YAML exemplar corpus file (optional)

	// === Feature Flags ===
	EnableSemantics bool // Enable embedding similarity detection (requires a local model)
	EnableResolver  bool // Enable the network redirect resolver (default: false)

	// === Resolver Settings ===
	ResolverTimeout time.Duration // Whole-resolution deadline per URL (default: 2.5s)
	ResolverHopCap  int           // Maximum redirect hops (default: 5)

	// === Thread Store ===
	StoreBackend StoreBackend  // "memory" or "redis"
	RedisAddr    string        // Redis address when StoreBackend is "redis"
	ThreadTTL    time.Duration // Thread retention (default: 24h)
	MaxTurns     int           // Per-thread sliding window (default: 160)

	// === Allow Lists ===
	AllowHosts     []string // Hosts never flagged by URL heuristics
	BankAllowHosts []string // Additional bank hosts treated as official
}

// NewDefaultConfig creates a Config with sensible defaults. All
// settings can be overridden via environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		ListenAddr: GetEnv("SCAMGATE_LISTEN", ":8820"),

		PrefilterSoftThreshold: clampInt(GetEnvInt("SCAMGATE_PREFILTER_SOFT", 28), 1, 100),
		PrefilterAutoThreshold: clampInt(GetEnvInt("SCAMGATE_PREFILTER_AUTO", 52), 1, 100),

		MediumThreshold: GetEnvFloat("SCAMGATE_MEDIUM_THRESHOLD", 35),
		WindowMode:      GetEnv("SCAMGATE_WINDOW_MODE", "auto"),
		RollingSize:     clampInt(GetEnvInt("SCAMGATE_ROLLING_SIZE", 20), 1, 1000),
		StickyCap:       clampInt(GetEnvInt("SCAMGATE_STICKY_CAP", 160), 1, 5000),
		WeightOverrides: GetEnv("SCAMGATE_WEIGHT_OVERRIDES", ""),
		SimilarityIndex: GetEnv("SCAMGATE_SIMILARITY_INDEX", ""),
		SemanticCorpus:  GetEnv("SCAMGATE_SEMANTIC_CORPUS", ""),

		EnableSemantics: GetEnvBool("SCAMGATE_ENABLE_SEMANTICS", true),
		EnableResolver:  GetEnvBool("SCAMGATE_ENABLE_RESOLVER", false),

		ResolverTimeout: time.Duration(GetEnvInt("SCAMGATE_RESOLVER_TIMEOUT_MS", 2500)) * time.Millisecond,
		ResolverHopCap:  clampInt(GetEnvInt("SCAMGATE_RESOLVER_HOP_CAP", 5), 1, 20),

		StoreBackend: StoreBackend(GetEnv("SCAMGATE_STORE", string(StoreMemory))),
		RedisAddr:    GetEnv("SCAMGATE_REDIS_ADDR", "localhost:6379"),
		ThreadTTL:    time.Duration(GetEnvInt("SCAMGATE_THREAD_TTL_SECONDS", 86400)) * time.Second,
		MaxTurns:     clampInt(GetEnvInt("SCAMGATE_MAX_TURNS", 160), 1, 5000),

		AllowHosts:     GetEnvSlice("SCAMGATE_ALLOW_HOSTS", nil),
		BankAllowHosts: GetEnvSlice("SCAMGATE_BANK_ALLOW_HOSTS", nil),
	}
}

// NewOfflineConfig creates a Config for fully offline operation: no
// network resolver, no model downloads, in-memory store.
func NewOfflineConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.EnableResolver = false
	cfg.EnableSemantics = false
	cfg.StoreBackend = StoreMemory
	return cfg
}

// NewHighSensitivityConfig lowers the thresholds for deployments that
// prefer false positives over misses.
func NewHighSensitivityConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.PrefilterSoftThreshold = 18
	cfg.PrefilterAutoThreshold = 40
	cfg.MediumThreshold = 25
	return cfg
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	var problems []string

	if c.PrefilterSoftThreshold > c.PrefilterAutoThreshold {
		problems = append(problems, "SCAMGATE_PREFILTER_SOFT exceeds SCAMGATE_PREFILTER_AUTO")
	}
	switch c.WindowMode {
	case "auto", "rolling", "sticky":
	default:
		problems = append(problems, fmt.Sprintf("unknown window mode %q", c.WindowMode))
	}
	if c.StoreBackend == StoreRedis && c.RedisAddr == "" {
		problems = append(problems, "SCAMGATE_STORE=redis requires SCAMGATE_REDIS_ADDR")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// MustValidate calls Validate and fatally exits if validation fails.
func (c *Config) MustValidate() {
	if err := c.Validate(); err != nil {
		log.Fatalf("[STARTUP] FATAL: Configuration validation failed: %v", err)
	}
	log.Println("[STARTUP] Configuration validated successfully")
}

// LoadWeightOverrides reads a YAML file mapping rule IDs to replacement
// weights. Unknown rule IDs are allowed; the engine ignores them.
func LoadWeightOverrides(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var out map[string]float64
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return out, nil
}

// clampInt ensures a value is within bounds.
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing.
// These are exported for use by other packages.

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
