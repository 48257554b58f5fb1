package semantic

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// EmbeddingProvider abstracts the embedding source so the detector can
// run on local ONNX models, a remote API, or a deterministic stub.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// EmbedderConfig configures the local ONNX embedder.
type EmbedderConfig struct {
	// ModelPath is the local ONNX model directory.
	ModelPath string
	// ModelName is the HuggingFace model to download when ModelPath is
	// missing.
	ModelName string
	// OnnxLibraryPath points at libonnxruntime; empty means pure Go
	// backend.
	OnnxLibraryPath string
}

// ModelMiniLM is the default sentence-embedding model: small,
// multilingual enough for Korean/English, Apache 2.0.
const ModelMiniLM = "sentence-transformers/all-MiniLM-L6-v2"

// DefaultEmbedderConfig returns the standard local setup.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		ModelName:       ModelMiniLM,
		ModelPath:       "./models/minilm",
		OnnxLibraryPath: defaultOnnxPath(),
	}
}

// LocalEmbedder runs sentence embeddings through a local ONNX model
// via hugot.
type LocalEmbedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	dim      int
}

// NewLocalEmbedder initializes the local embedding pipeline. Tries the
// ONNX Runtime backend first, falls back to the pure Go backend.
func NewLocalEmbedder(cfg EmbedderConfig) (*LocalEmbedder, error) {
	session, err := newSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	modelPath, err := resolveModelPath(cfg)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("failed to resolve model path: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "scam-exemplar-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	e := &LocalEmbedder{session: session, pipeline: pipeline}

	// Probe once to learn the output dimension.
	probe, err := e.Embed(context.Background(), "probe")
	if err != nil {
		_ = session.Destroy()
		return nil, fmt.Errorf("embedding probe failed: %w", err)
	}
	e.dim = len(probe)

	log.Printf("Local embedder initialized (model: %s, dim: %d)", modelPath, e.dim)
	return e, nil
}

// NewAutoDetectedEmbedder returns a local embedder when a model is
// available, nil otherwise.
func NewAutoDetectedEmbedder() EmbeddingProvider {
	cfg := DefaultEmbedderConfig()
	if envPath := os.Getenv("SCAMGATE_MODEL_PATH"); envPath != "" {
		cfg.ModelPath = envPath
	}

	if _, err := os.Stat(filepath.Join(cfg.ModelPath, "model.onnx")); err != nil {
		auto := os.Getenv("SCAMGATE_AUTO_DOWNLOAD_MODEL")
		if auto != "true" && auto != "1" {
			return nil
		}
	}

	e, err := NewLocalEmbedder(cfg)
	if err != nil {
		log.Printf("WARNING: local embedder unavailable: %v", err)
		return nil
	}
	return e
}

func newSession(cfg EmbedderConfig) (*hugot.Session, error) {
	if cfg.OnnxLibraryPath != "" {
		opts := []options.WithOption{
			options.WithOnnxLibraryPath(cfg.OnnxLibraryPath),
		}
		session, err := hugot.NewORTSession(opts...)
		if err == nil {
			log.Printf("Embedder using ONNX Runtime backend")
			return session, nil
		}
		log.Printf("ONNX Runtime unavailable, falling back to Go backend: %v", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Go session: %w", err)
	}
	return session, nil
}

func resolveModelPath(cfg EmbedderConfig) (string, error) {
	if cfg.ModelPath != "" {
		if _, err := os.Stat(cfg.ModelPath); err == nil {
			return cfg.ModelPath, nil
		}
	}
	if cfg.ModelName == "" {
		return "", fmt.Errorf("no model path or name specified")
	}

	modelsDir := "./models"
	if err := os.MkdirAll(modelsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create models directory: %w", err)
	}

	log.Printf("Downloading model %s...", cfg.ModelName)
	modelPath, err := hugot.DownloadModel(cfg.ModelName, modelsDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return modelPath, nil
}

// Embed returns the mean-pooled sentence embedding for text.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := e.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(out.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding output")
	}
	return out.Embeddings[0], nil
}

// Dimension returns the embedding dimensionality.
func (e *LocalEmbedder) Dimension() int { return e.dim }

// Close releases the ONNX session.
func (e *LocalEmbedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

func defaultOnnxPath() string {
	paths := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// HashEmbedder is a deterministic token-hash embedder. It has no model
// dependency and is used in tests and offline smoke runs; similarity
// quality is far below a real model.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns a hash embedder of the given dimension.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 128
	}
	return &HashEmbedder{Dim: dim}
}

func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, h.Dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		hs := fnv.New32a()
		_, _ = hs.Write([]byte(tok))
		v[int(hs.Sum32())%h.Dim]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range v {
			v[i] *= inv
		}
	}
	return v, nil
}

func (h *HashEmbedder) Dimension() int { return h.Dim }
