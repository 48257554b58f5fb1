package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/guardline/scamgate/pkg/config"
	"github.com/guardline/scamgate/pkg/engine"
	"github.com/guardline/scamgate/pkg/prefilter"
	"github.com/guardline/scamgate/pkg/semantic"
	"github.com/guardline/scamgate/pkg/session"
	"github.com/guardline/scamgate/pkg/simindex"
	"github.com/guardline/scamgate/pkg/urlscan"
)

const Version = "0.1.0"

// Analyzer bundles the pipeline components. The semantic detector and
// the Redis store are optional and gracefully degrade when
// unavailable.
type Analyzer struct {
	cfg      *config.Config
	engOpts  engine.ScoringOptions
	preOpts  prefilter.Options
	index    *simindex.Index
	semantic *semantic.Detector
	store    session.ThreadStore
	resolver *urlscan.Resolver
}

// AnalyzeResponse is the full-analysis payload, optionally annotated
// with similarity and semantic evidence.
type AnalyzeResponse struct {
	ThreadID string                 `json:"thread_id,omitempty"`
	Analysis *engine.ThreadAnalysis `json:"analysis"`
	Similar  []simindex.Match       `json:"similar,omitempty"`
	Semantic *semantic.Result       `json:"semantic,omitempty"`
}

func NewAnalyzer(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	engOpts := engine.DefaultScoringOptions()
	engOpts.WindowMode = engine.WindowMode(cfg.WindowMode)
	engOpts.RollingSize = cfg.RollingSize
	engOpts.StickyCap = cfg.StickyCap
	engOpts.MediumThreshold = cfg.MediumThreshold
	if cfg.WeightOverrides != "" {
		overrides, err := config.LoadWeightOverrides(cfg.WeightOverrides)
		if err != nil {
			log.Printf("○ Weight overrides disabled (%v)", err)
		} else {
			engOpts.WeightOverrides = overrides
			log.Printf("✓ Loaded %d weight overrides", len(overrides))
		}
	}

	a := &Analyzer{
		cfg:     cfg,
		engOpts: engOpts,
		preOpts: prefilter.Options{
			SoftThreshold:  cfg.PrefilterSoftThreshold,
			AutoThreshold:  cfg.PrefilterAutoThreshold,
			AllowHosts:     cfg.AllowHosts,
			BankAllowHosts: cfg.BankAllowHosts,
		},
	}

	// Similarity index: external file or the built-in playbooks.
	if cfg.SimilarityIndex != "" {
		ix, err := simindex.LoadFile(cfg.SimilarityIndex, simindex.DefaultTopK)
		if err != nil {
			log.Printf("○ Similarity index file failed (%v), using built-in playbooks", err)
			a.index = simindex.New(simindex.DefaultItems(), simindex.DefaultTopK)
		} else {
			a.index = ix
			log.Printf("✓ Similarity index loaded (%d playbooks)", ix.Len())
		}
	} else {
		a.index = simindex.New(simindex.DefaultItems(), simindex.DefaultTopK)
	}

	// Semantic detector - optional, needs a local embedding model.
	if cfg.EnableSemantics {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		a.semantic = semantic.NewAutoDetected(ctx, nil)
		if a.semantic != nil && cfg.SemanticCorpus != "" {
			if extra, err := semantic.LoadExemplarFile(cfg.SemanticCorpus); err != nil {
				log.Printf("○ Semantic corpus file failed (%v), built-in exemplars only", err)
			} else if len(extra) == 0 {
				log.Printf("○ Semantic corpus file %s is empty", cfg.SemanticCorpus)
			} else if err := a.semantic.LoadExemplars(ctx, extra); err != nil {
				log.Printf("○ Semantic corpus load failed (%v)", err)
			} else {
				log.Printf("✓ Loaded %d extra exemplars from %s", len(extra), cfg.SemanticCorpus)
			}
		}
		cancel()
		if a.semantic != nil {
			log.Println("✓ Semantic detection enabled (chromem-go + local embeddings)")
		} else {
			log.Println("○ Semantic detection disabled (no embedding source)")
		}
	}

	// Network redirect resolver - optional, off by default so the
	// gateway stays side-effect free.
	if cfg.EnableResolver {
		a.resolver = urlscan.NewResolver(
			urlscan.WithTimeout(cfg.ResolverTimeout),
			urlscan.WithHopCap(cfg.ResolverHopCap),
			urlscan.WithMaxConcurrent(8))
		log.Println("✓ Network redirect resolver enabled")
	}

	// Thread store.
	switch cfg.StoreBackend {
	case config.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		store, err := session.NewRedisStore(ctx, cfg.RedisAddr,
			session.WithRedisMaxAge(cfg.ThreadTTL),
			session.WithRedisMaxTurns(cfg.MaxTurns))
		cancel()
		if err != nil {
			log.Printf("○ Redis store unavailable (%v), falling back to memory", err)
			a.store = session.NewInMemoryStore(
				session.WithMaxAge(cfg.ThreadTTL),
				session.WithMaxTurns(cfg.MaxTurns))
		} else {
			a.store = store
			log.Printf("✓ Redis thread store at %s", cfg.RedisAddr)
		}
	default:
		a.store = session.NewInMemoryStore(
			session.WithMaxAge(cfg.ThreadTTL),
			session.WithMaxTurns(cfg.MaxTurns))
	}

	return a
}

// Analyze runs the full pipeline on thread text.
func (a *Analyzer) Analyze(ctx context.Context, text string, callCtx engine.CallContext) *AnalyzeResponse {
	analysis := engine.AnalyzeThread(text, callCtx, &a.engOpts)
	resp := &AnalyzeResponse{Analysis: analysis}

	if a.index != nil && len(analysis.Signals) > 0 {
		resp.Similar = a.index.RankSimilar(analysis.Signals, 0, 0)
	}
	if a.semantic != nil && a.semantic.IsReady() {
		if sem, err := a.semantic.Detect(ctx, text); err == nil {
			resp.Semantic = sem
		}
	}
	return resp
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cfg := config.NewDefaultConfig()
		if len(os.Args) > 2 {
			cfg.ListenAddr = ":" + strings.TrimPrefix(os.Args[2], ":")
		}
		cfg.MustValidate()
		runHTTPServer(cfg)
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: scamgate scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "--scan":
		runStdinScan()
	case "version":
		fmt.Printf("scamgate v%s\n", Version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("scamgate v%s - conversational scam risk gateway\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  scamgate serve [port]   Start HTTP server (default: 8820)")
	fmt.Println("  scamgate scan <text>    Analyze a thread given as an argument")
	fmt.Println("  scamgate --scan         Analyze a thread read from stdin")
	fmt.Println("  scamgate version        Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  SCAMGATE_LISTEN            HTTP listen address")
	fmt.Println("  SCAMGATE_STORE             Thread store: memory, redis")
	fmt.Println("  SCAMGATE_REDIS_ADDR        Redis address for the shared store")
	fmt.Println("  SCAMGATE_WEIGHT_OVERRIDES  YAML rule-weight override file")
	fmt.Println("  SCAMGATE_SIMILARITY_INDEX  YAML/JSON playbook index file")
	fmt.Println("  SCAMGATE_ENABLE_SEMANTICS  Enable embedding similarity (default: true)")
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

type analyzeRequest struct {
	Text           string `json:"text"`
	ThreadID       string `json:"thread_id"`
	ActiveCall     bool   `json:"active_call"`
	UnknownContact bool   `json:"unknown_contact"`
}

func runHTTPServer(cfg *config.Config) {
	analyzer := NewAnalyzer(cfg)

	app := fiber.New(fiber.Config{
		AppName: "scamgate",
	})

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	// Cheap gate: decide whether the caller should bother with /v1/analyze.
	app.Post("/v1/prefilter", func(c fiber.Ctx) error {
		var req struct {
			Text           string                    `json:"text"`
			UnknownContact bool                      `json:"unknown_contact"`
			Actions        prefilter.ExplicitActions `json:"actions"`
			Links          []prefilter.LinkCandidate `json:"links"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}

		opts := analyzer.preOpts
		opts.UnknownContact = req.UnknownContact
		opts.Actions = req.Actions
		opts.Links = req.Links
		return c.JSON(prefilter.Evaluate(req.Text, opts))
	})

	// Full analysis. With a thread_id the text is appended to the
	// stored thread and the accumulated thread is analyzed.
	app.Post("/v1/analyze", func(c fiber.Ctx) error {
		var req analyzeRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Text == "" {
			return c.Status(400).JSON(fiber.Map{"error": "text field is required"})
		}

		text := req.Text
		threadID := req.ThreadID
		if threadID != "" {
			accumulated, err := appendToThread(c.Context(), analyzer.store, threadID, req.Text)
			if err != nil {
				return c.Status(500).JSON(fiber.Map{"error": err.Error()})
			}
			text = accumulated
		}

		callCtx := engine.CallContext{
			ActiveCall:     req.ActiveCall,
			UnknownContact: req.UnknownContact,
		}
		resp := analyzer.Analyze(c.Context(), text, callCtx)
		resp.ThreadID = threadID

		if threadID != "" {
			if st, err := analyzer.store.Get(c.Context(), threadID); err == nil && st != nil {
				st.LastScore = resp.Analysis.ScoreTotal
				st.LastRisk = string(resp.Analysis.RiskLevel)
				_ = analyzer.store.Save(c.Context(), st)
			}
		}
		return c.JSON(resp)
	})

	// Similarity ranking for an already-computed signal list.
	app.Post("/v1/similar", func(c fiber.Ctx) error {
		var req struct {
			Signals []engine.Signal `json:"signals"`
			TopK    int             `json:"top_k"`
			MinSim  float64         `json:"min_sim"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if len(req.Signals) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "signals field is required"})
		}
		return c.JSON(fiber.Map{
			"matches": analyzer.index.RankSimilar(req.Signals, req.TopK, req.MinSim),
		})
	})

	// Real redirect resolution, exposed only when the operator opted
	// into network side effects.
	if analyzer.resolver != nil {
		app.Post("/v1/resolve", func(c fiber.Ctx) error {
			var req struct {
				URL string `json:"url"`
			}
			if err := c.Bind().Body(&req); err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
			}
			if req.URL == "" {
				return c.Status(400).JSON(fiber.Map{"error": "url field is required"})
			}
			return c.JSON(analyzer.resolver.Resolve(c.Context(), req.URL))
		})
	}

	log.Printf("scamgate HTTP server starting on %s", cfg.ListenAddr)
	log.Printf("Endpoints:")
	log.Printf("  GET  /healthz       - Health check")
	log.Printf("  POST /v1/prefilter  - Cheap gate pass")
	log.Printf("  POST /v1/analyze    - Full thread analysis")
	log.Printf("  POST /v1/similar    - Playbook similarity ranking")
	if analyzer.resolver != nil {
		log.Printf("  POST /v1/resolve    - Network redirect resolution")
	}

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

// appendToThread records the new text on the stored thread, creating
// the thread on first use, and returns the accumulated thread text.
func appendToThread(ctx context.Context, store session.ThreadStore, threadID, text string) (string, error) {
	st, err := store.Get(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("thread lookup: %w", err)
	}
	if st == nil {
		st = &session.ThreadState{ThreadID: threadID}
		if err := store.Save(ctx, st); err != nil {
			return "", fmt.Errorf("thread create: %w", err)
		}
	}
	if err := store.AppendTurn(ctx, threadID, &session.TurnRecord{Text: text}); err != nil {
		return "", fmt.Errorf("thread append: %w", err)
	}
	st, err = store.Get(ctx, threadID)
	if err != nil || st == nil {
		return "", fmt.Errorf("thread reload: %w", err)
	}
	return st.Text(), nil
}

// ============================================================================
// CLI Modes
// ============================================================================

func runCLIScan(text string) {
	cfg := config.NewOfflineConfig()
	analyzer := NewAnalyzer(cfg)
	printScan(analyzer, text)
}

// runStdinScan reads a whole thread from stdin and analyzes it once.
func runStdinScan() {
	cfg := config.NewOfflineConfig()
	analyzer := NewAnalyzer(cfg)

	var sb strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("stdin read failed: %v", err)
	}
	printScan(analyzer, sb.String())
}

func printScan(analyzer *Analyzer, text string) {
	pre := prefilter.Evaluate(text, analyzer.preOpts)

	out := struct {
		Prefilter prefilter.Result `json:"prefilter"`
		Full      *AnalyzeResponse `json:"full,omitempty"`
	}{Prefilter: pre}

	if pre.GatePass {
		out.Full = analyzer.Analyze(context.Background(), text, engine.CallContext{})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encode failed: %v", err)
	}
}
