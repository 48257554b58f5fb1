// Package engine implements the full scoring and escalation pipeline:
// thread parsing, per-turn scoring, context window selection, actor-role
// scoping, stage classification, diminishing-returns aggregation and the
// multi-gate escalation circuit producing the final risk verdict.
//
// Everything here is pure computation over immutable inputs. One call,
// one ThreadAnalysis; no shared mutable state, safe for unbounded
// parallel use.
package engine

import (
	"sort"
	"time"

	"github.com/guardline/scamgate/pkg/rules"
	"github.com/guardline/scamgate/pkg/urlscan"
)

// RiskLevel is the final thread verdict.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Role is the parsed speaker side of a turn.
type Role string

const (
	RoleSender   Role = "S"
	RoleReceiver Role = "R"
	RoleUnknown  Role = "U"
)

// ActorHint is the content-derived behavior class of an unlabeled turn.
type ActorHint string

const (
	HintDemand  ActorHint = "demand"
	HintComply  ActorHint = "comply"
	HintNeutral ActorHint = "neutral"
)

// Hit is one rule match instance on one turn, weight already multiplied
// by the distinct-match count but not yet dampened.
type Hit struct {
	RuleID    string      `json:"rule_id"`
	Label     string      `json:"label"`
	Stage     rules.Stage `json:"-"`
	StageName string      `json:"stage"`
	Weight    float64     `json:"weight"`
	Matches   []string    `json:"matches,omitempty"`
	Sample    string      `json:"sample,omitempty"`
}

// Turn is one parsed message of a thread.
type Turn struct {
	Index     int              `json:"index"`
	Raw       string           `json:"raw"`
	Speaker   string           `json:"speaker,omitempty"`
	Role      Role             `json:"role"`
	Hint      ActorHint        `json:"hint"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	URLs      []urlscan.Report `json:"urls,omitempty"`
	Hits      []Hit            `json:"hits,omitempty"`
	Score     float64          `json:"score"`
	Stage     rules.Stage      `json:"-"`
	InScope   bool             `json:"in_scope"`
}

// Signal is the thread-wide aggregate of hits sharing a rule ID.
// Derived from dampened hits, never stored.
type Signal struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"`
	Stage     rules.Stage `json:"-"`
	StageName string      `json:"stage"`
	WeightSum float64     `json:"weight_sum"`
	Count     int         `json:"count"`
	Examples  []string    `json:"examples,omitempty"`
}

// TurnSummary is the per-turn slice of a ThreadAnalysis.
type TurnSummary struct {
	Index   int       `json:"index"`
	Role    Role      `json:"role"`
	Hint    ActorHint `json:"hint"`
	Stage   string    `json:"stage"`
	Score   float64   `json:"score"`
	Hits    int       `json:"hits"`
	InScope bool      `json:"in_scope"`
}

// WindowInfo records which turns the context window selector kept and
// why.
type WindowInfo struct {
	Mode    string `json:"mode"`
	Start   int    `json:"start"`
	End     int    `json:"end"` // inclusive
	Reason  string `json:"reason,omitempty"`
	Anchors int    `json:"anchors,omitempty"` // index of the strong-demand anchor turn, -1 if none
}

// ThreadAnalysis is the complete result of one AnalyzeThread call.
type ThreadAnalysis struct {
	ScoreTotal    float64       `json:"score_total"` // 0-100
	RiskLevel     RiskLevel     `json:"risk_level"`
	HardHigh      bool          `json:"hard_high"`
	StagePeak     string        `json:"stage_peak"`
	StageTriggers []string      `json:"stage_triggers,omitempty"`
	Hits          []Hit         `json:"hits,omitempty"`
	Signals       []Signal      `json:"signals,omitempty"`
	Turns         []TurnSummary `json:"turns,omitempty"`
	Window        WindowInfo    `json:"window"`
	SubSignals    []string      `json:"sub_signals,omitempty"` // named escalation sub-signals that fired
	Demotions     []string      `json:"demotions,omitempty"`
}

// BuildSignals aggregates dampened hits into per-rule signals, sorted
// by descending weight sum.
func BuildSignals(hits []Hit) []Signal {
	byID := make(map[string]*Signal)
	var order []string
	for _, h := range hits {
		s, ok := byID[h.RuleID]
		if !ok {
			s = &Signal{ID: h.RuleID, Label: h.Label, Stage: h.Stage, StageName: h.Stage.String()}
			byID[h.RuleID] = s
			order = append(order, h.RuleID)
		}
		s.WeightSum += h.Weight
		s.Count++
		if len(s.Examples) < 3 && h.Sample != "" {
			s.Examples = append(s.Examples, h.Sample)
		}
	}

	out := make([]Signal, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WeightSum > out[j].WeightSum
	})
	return out
}

// stageRank orders stages for the monotone stage-peak invariant.
func stageRank(s rules.Stage) int {
	switch s {
	case rules.StagePayment:
		return 3
	case rules.StageInstall:
		return 2
	case rules.StageVerify:
		return 1
	default:
		return 0
	}
}
