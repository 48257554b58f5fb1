// Package semantic matches conversation text against a corpus of known
// scam script exemplars using embedding similarity. It catches
// paraphrased scripts the lexicon misses. The detector is optional:
// when no embedding source is available the rest of the pipeline runs
// without it.
package semantic

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// DefaultThreshold is the similarity above which a corpus match counts
// as a threat signal.
const DefaultThreshold = 0.65

// Exemplar is one known scam script with metadata.
type Exemplar struct {
	Text     string  `yaml:"text"`
	Category string  `yaml:"category"`
	Language string  `yaml:"language"`
	Risk     float32 `yaml:"risk"` // 0.0-1.0
}

// Match is a single corpus hit.
type Match struct {
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Language   string  `json:"language"`
	Similarity float32 `json:"similarity"`
}

// Result is the outcome of one Detect call.
type Result struct {
	Score       float32 `json:"score"`
	Category    string  `json:"category"`
	Language    string  `json:"language,omitempty"`
	MatchedText string  `json:"matched_text,omitempty"`
	IsThreat    bool    `json:"is_threat"`
	TopMatches  []Match `json:"top_matches,omitempty"`
}

// Detector holds the exemplar corpus in an in-process vector store.
type Detector struct {
	db         *chromem.DB
	collection *chromem.Collection
	threshold  float32
	mu         sync.RWMutex
	ready      bool
	loaded     int
}

// NewDetector creates a detector backed by the given embedding
// provider.
func NewDetector(embedder EmbeddingProvider) (*Detector, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}

	db := chromem.NewDB()
	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}

	collection, err := db.CreateCollection("scam_exemplars", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &Detector{
		db:         db,
		collection: collection,
		threshold:  DefaultThreshold,
	}, nil
}

// NewAutoDetected builds a detector from the best available embedding
// source and loads the built-in corpus. Returns nil when no embedding
// source exists; callers treat nil as "semantic layer disabled".
func NewAutoDetected(ctx context.Context, preferred EmbeddingProvider) *Detector {
	embedder := preferred
	if embedder == nil {
		embedder = NewAutoDetectedEmbedder()
	}
	if embedder == nil {
		fmt.Fprintf(os.Stderr, "[INFO] Semantic detector unavailable - no embedding source found\n")
		return nil
	}

	d, err := NewDetector(embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Semantic detector initialization failed: %v\n", err)
		return nil
	}
	if err := d.LoadExemplars(ctx, nil); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Semantic corpus load failed: %v\n", err)
		return nil
	}
	fmt.Fprintf(os.Stderr, "[INFO] Semantic detector ready (dim=%d)\n", embedder.Dimension())
	return d
}

// LoadExemplars embeds the corpus into the vector store. A nil slice
// loads the built-in Korean/English exemplars.
func (d *Detector) LoadExemplars(ctx context.Context, exemplars []Exemplar) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if exemplars == nil {
		exemplars = builtinExemplars()
	}

	docs := make([]chromem.Document, len(exemplars))
	for i, e := range exemplars {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("exemplar_%d", d.loaded+i),
			Content: e.Text,
			Metadata: map[string]string{
				"category": e.Category,
				"language": e.Language,
				"risk":     fmt.Sprintf("%.2f", e.Risk),
			},
		}
	}

	if err := d.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add exemplars: %w", err)
	}

	d.loaded += len(exemplars)
	d.ready = true
	return nil
}

// SetThreshold updates the similarity threshold.
func (d *Detector) SetThreshold(t float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.threshold = t
}

// IsReady reports whether the corpus is loaded.
func (d *Detector) IsReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// Detect queries the corpus for the most similar exemplars.
func (d *Detector) Detect(ctx context.Context, text string) (*Result, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.ready {
		return nil, fmt.Errorf("semantic detector not initialized - call LoadExemplars first")
	}

	queryText := strings.ToLower(text)
	results, err := d.collection.Query(ctx, queryText, 3, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	if len(results) == 0 {
		return &Result{Category: "benign"}, nil
	}

	topMatches := make([]Match, len(results))
	for i, r := range results {
		topMatches[i] = Match{
			Text:       r.Content,
			Category:   r.Metadata["category"],
			Language:   r.Metadata["language"],
			Similarity: r.Similarity,
		}
	}

	best := results[0]
	category := best.Metadata["category"]

	if category == "benign" && best.Similarity > d.threshold {
		return &Result{Category: "benign", TopMatches: topMatches}, nil
	}

	return &Result{
		Score:       best.Similarity,
		Category:    category,
		Language:    best.Metadata["language"],
		MatchedText: best.Content,
		IsThreat:    best.Similarity >= d.threshold && category != "benign",
		TopMatches:  topMatches,
	}, nil
}
