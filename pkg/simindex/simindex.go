// Package simindex ranks a thread's signal profile against a curated
// index of known scam playbooks. Matches are additive evidence for the
// caller's UI; they never change the engine's risk level.
package simindex

import (
	"math"
	"sort"

	"github.com/guardline/scamgate/pkg/engine"
)

const (
	// DefaultTopK bounds both the fingerprint dimensionality and the
	// number of matches returned.
	DefaultTopK = 8
	// DefaultMinSimilarity gates out coincidental overlap.
	DefaultMinSimilarity = 0.35
)

// Vector is a sparse signal-ID fingerprint.
type Vector map[string]float64

// Fingerprint builds a sparse vector from a signal list: top-K entries
// by weight, log-scaled so a single heavy signal cannot drown the
// profile, then max-normalized to unit scale.
func Fingerprint(signals []engine.Signal, topK int) Vector {
	if topK <= 0 {
		topK = DefaultTopK
	}
	sorted := make([]engine.Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].WeightSum != sorted[j].WeightSum {
			return sorted[i].WeightSum > sorted[j].WeightSum
		}
		return sorted[i].ID < sorted[j].ID
	})
	if len(sorted) > topK {
		sorted = sorted[:topK]
	}

	v := make(Vector, len(sorted))
	maxVal := 0.0
	for _, s := range sorted {
		if s.WeightSum <= 0 {
			continue
		}
		val := math.Log1p(s.WeightSum)
		v[s.ID] = val
		if val > maxVal {
			maxVal = val
		}
	}
	if maxVal > 0 {
		for k := range v {
			v[k] /= maxVal
		}
	}
	return v
}

func cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for k, av := range a {
		na += av * av
		if bv, ok := b[k]; ok {
			dot += av * bv
		}
	}
	for _, bv := range b {
		nb += bv * bv
	}
	if dot == 0 || na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Item is one indexed playbook: a known scam pattern described by the
// signal weights a typical instance produces.
type Item struct {
	ID           string             `json:"id" yaml:"id"`
	Category     string             `json:"category" yaml:"category"`
	ExpectedRisk string             `json:"expected_risk" yaml:"expected_risk"`
	Signals      map[string]float64 `json:"signals" yaml:"signals"`

	vec Vector
}

// Match is one ranked index hit.
type Match struct {
	ID           string   `json:"id"`
	Category     string   `json:"category"`
	ExpectedRisk string   `json:"expected_risk"`
	Similarity   float64  `json:"similarity"`
	SharedKeys   []string `json:"shared_keys,omitempty"`
}

// Index holds precomputed fingerprints. Read-only after construction,
// safe for concurrent RankSimilar calls.
type Index struct {
	items []Item
	topK  int
}

// New precomputes fingerprints for the given items. A nil or empty
// item list yields a valid index that matches nothing.
func New(items []Item, topK int) *Index {
	if topK <= 0 {
		topK = DefaultTopK
	}
	ix := &Index{topK: topK}
	for _, it := range items {
		if it.ID == "" || len(it.Signals) == 0 {
			continue
		}
		it.vec = vectorFromWeights(it.Signals, topK)
		ix.items = append(ix.items, it)
	}
	return ix
}

// Len reports the number of usable items.
func (ix *Index) Len() int { return len(ix.items) }

// RankSimilar fingerprints the thread's signals and returns up to topK
// index items with cosine similarity of at least minSim, most similar
// first. An empty index or empty signal list returns nil.
func (ix *Index) RankSimilar(signals []engine.Signal, topK int, minSim float64) []Match {
	if topK <= 0 {
		topK = ix.topK
	}
	if minSim <= 0 {
		minSim = DefaultMinSimilarity
	}
	probe := Fingerprint(signals, ix.topK)
	if len(probe) == 0 || len(ix.items) == 0 {
		return nil
	}

	var out []Match
	for _, it := range ix.items {
		sim := cosine(probe, it.vec)
		if sim < minSim {
			continue
		}
		out = append(out, Match{
			ID:           it.ID,
			Category:     it.Category,
			ExpectedRisk: it.ExpectedRisk,
			Similarity:   math.Round(sim*1000) / 1000,
			SharedKeys:   sharedKeys(probe, it.vec),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

func vectorFromWeights(weights map[string]float64, topK int) Vector {
	type kv struct {
		k string
		v float64
	}
	sorted := make([]kv, 0, len(weights))
	for k, v := range weights {
		if v > 0 {
			sorted = append(sorted, kv{k, v})
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].v != sorted[j].v {
			return sorted[i].v > sorted[j].v
		}
		return sorted[i].k < sorted[j].k
	})
	if len(sorted) > topK {
		sorted = sorted[:topK]
	}

	v := make(Vector, len(sorted))
	maxVal := 0.0
	for _, e := range sorted {
		val := math.Log1p(e.v)
		v[e.k] = val
		if val > maxVal {
			maxVal = val
		}
	}
	if maxVal > 0 {
		for k := range v {
			v[k] /= maxVal
		}
	}
	return v
}

func sharedKeys(a, b Vector) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
