package engine

import "github.com/guardline/scamgate/pkg/rules"

// WindowMode selects the context window strategy.
type WindowMode string

const (
	WindowRolling WindowMode = "rolling"
	WindowSticky  WindowMode = "sticky"
	WindowAuto    WindowMode = "auto"
)

// Defaults for ScoringOptions. All empirically tuned against the
// labeled scenario corpus; override per call, do not edit.
const (
	DefaultRollingSize      = 20
	DefaultStickyCap        = 160
	DefaultBacktrack        = 4
	DefaultDayWindow        = 3
	DefaultMediumThreshold  = 35.0
	DefaultURLMultiplierCap = 2.0
)

// ScoringOptions tunes one AnalyzeThread call. The zero value is not
// usable; start from DefaultScoringOptions.
type ScoringOptions struct {
	// Catalog is the rule catalog to score against. nil means the
	// shared default catalog.
	Catalog *rules.Catalog

	// WeightOverrides replaces rule base weights by rule ID.
	WeightOverrides map[string]float64

	// Window selection.
	WindowMode  WindowMode
	RollingSize int
	StickyCap   int
	Backtrack   int
	DayWindow   int // days; applies to the rolling fallback only

	// MediumThreshold is the dampened-score floor for a medium verdict.
	MediumThreshold float64

	// URLMultiplierCap bounds URL-derived weight relative to lexicon
	// weight on a single turn.
	URLMultiplierCap float64
}

// CallContext carries out-of-band flags about the conversation.
type CallContext struct {
	// ActiveCall marks the thread as a transcript of a live call,
	// which forces demand-anchored window selection.
	ActiveCall bool

	// UnknownContact marks the counterparty as not in the recipient's
	// contacts.
	UnknownContact bool
}

// DefaultScoringOptions returns the tuned defaults.
func DefaultScoringOptions() ScoringOptions {
	return ScoringOptions{
		WindowMode:       WindowAuto,
		RollingSize:      DefaultRollingSize,
		StickyCap:        DefaultStickyCap,
		Backtrack:        DefaultBacktrack,
		DayWindow:        DefaultDayWindow,
		MediumThreshold:  DefaultMediumThreshold,
		URLMultiplierCap: DefaultURLMultiplierCap,
	}
}

// normalize fills zero fields with defaults and resolves the catalog.
func (o ScoringOptions) normalize() ScoringOptions {
	d := DefaultScoringOptions()
	if o.Catalog == nil {
		o.Catalog = rules.Default()
	}
	if o.WindowMode == "" {
		o.WindowMode = d.WindowMode
	}
	if o.RollingSize <= 0 {
		o.RollingSize = d.RollingSize
	}
	if o.StickyCap <= 0 {
		o.StickyCap = d.StickyCap
	}
	if o.Backtrack <= 0 {
		o.Backtrack = d.Backtrack
	}
	if o.DayWindow <= 0 {
		o.DayWindow = d.DayWindow
	}
	if o.MediumThreshold <= 0 {
		o.MediumThreshold = d.MediumThreshold
	}
	if o.URLMultiplierCap <= 0 {
		o.URLMultiplierCap = d.URLMultiplierCap
	}
	return o
}

// ruleWeight resolves a rule's base weight under the overrides.
func (o *ScoringOptions) ruleWeight(r *rules.Rule) float64 {
	if o.WeightOverrides != nil {
		if w, ok := o.WeightOverrides[r.ID]; ok {
			if w < 0 {
				return 0
			}
			return w
		}
	}
	return r.Weight
}
