package engine

import (
	"strings"

	"github.com/guardline/scamgate/pkg/rules"
)

// AnalyzeThread runs the full pipeline on one conversation thread:
// parse, role classification, window selection, per-turn scoring,
// repetition damping, stage classification and escalation. The result
// depends only on the inputs; the same text, call context and options
// always yield the same analysis.
func AnalyzeThread(text string, callCtx CallContext, opts *ScoringOptions) *ThreadAnalysis {
	var o ScoringOptions
	if opts != nil {
		o = *opts
	} else {
		o = DefaultScoringOptions()
	}
	o = o.normalize()

	out := &ThreadAnalysis{
		RiskLevel: RiskLow,
		StagePeak: rules.StageInfo.String(),
		Window:    WindowInfo{Mode: string(o.WindowMode), Start: 0, End: -1},
	}

	turns := ParseThread(text)
	if len(turns) == 0 {
		return out
	}

	eligible := ClassifyRoles(turns)
	out.Window = SelectWindow(turns, callCtx, &o)
	for i := range turns {
		turns[i].InScope = turns[i].InScope && eligible[i]
	}

	var (
		scopeHits  []Hit
		scopeParts []string
	)
	for i := range turns {
		if !turns[i].InScope {
			continue
		}
		ScoreTurn(&turns[i], &o)
		scopeHits = append(scopeHits, turns[i].Hits...)
		scopeParts = append(scopeParts, turns[i].Raw)
	}
	scopeText := strings.Join(scopeParts, "\n")

	damped := Dampen(scopeHits)
	total := 0.0
	for _, h := range damped {
		total += h.Weight
	}
	if total > 100 {
		total = 100
	}
	total = round2(total)

	stage, triggers := ClassifyStage(damped, scopeText)

	// Stage peak is the maximum over the thread's in-scope turn
	// stages, never below what the aggregate classifier found.
	peak := stage
	for i := range turns {
		if turns[i].InScope && stageRank(turns[i].Stage) > stageRank(peak) {
			peak = turns[i].Stage
		}
	}

	ss := ComputeSubSignals(damped, scopeText)
	esc := Escalate(total, ss, &o)

	out.ScoreTotal = total
	out.RiskLevel = esc.RiskLevel
	out.HardHigh = esc.HardHigh
	out.StagePeak = peak.String()
	out.StageTriggers = triggers
	out.Hits = damped
	out.Signals = BuildSignals(damped)
	out.SubSignals = esc.SubSignals
	out.Demotions = esc.Demotions

	out.Turns = make([]TurnSummary, 0, len(turns))
	for i := range turns {
		out.Turns = append(out.Turns, TurnSummary{
			Index:   turns[i].Index,
			Role:    turns[i].Role,
			Hint:    turns[i].Hint,
			Stage:   turns[i].Stage.String(),
			Score:   turns[i].Score,
			Hits:    len(turns[i].Hits),
			InScope: turns[i].InScope,
		})
	}
	return out
}
