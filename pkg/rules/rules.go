// Package rules provides the immutable scam-lexicon catalog used by the
// prefilter gate and the full scoring engine. All regex patterns are
// compiled once at catalog construction and shared across all analyses.
//
// Design principles:
// - COMPILE ONCE: All patterns compiled at load, not per-thread
// - IMMUTABLE: A catalog is read-only after construction
// - INJECTED: Components receive the catalog explicitly, never as a global
package rules

import (
	"regexp"
	"sync"
)

// Stage is the coarse phase-of-attack a rule belongs to.
type Stage int

const (
	StageInfo Stage = iota
	StageVerify
	StageInstall
	StagePayment
)

// String returns the wire name of the stage.
func (s Stage) String() string {
	switch s {
	case StageVerify:
		return "verify"
	case StageInstall:
		return "install"
	case StagePayment:
		return "payment"
	default:
		return "info"
	}
}

// ParseStage maps a wire name back to a Stage. Unknown names fall back
// to StageInfo rather than failing.
func ParseStage(name string) Stage {
	switch name {
	case "verify":
		return StageVerify
	case "install":
		return StageInstall
	case "payment":
		return StagePayment
	default:
		return StageInfo
	}
}

// Rule is one lexicon entry: a stable ID, a human label, the attack
// stage it signals, a base weight and the compiled match patterns.
type Rule struct {
	ID       string
	Label    string
	Stage    Stage
	Weight   float64
	Patterns []*regexp.Regexp
}

// MatchDistinct returns the distinct pattern matches of this rule in
// text, up to limit. Distinct means distinct matched snippets, so a
// keyword repeated verbatim counts once per pattern.
func (r *Rule) MatchDistinct(text string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, re := range r.Patterns {
		for _, m := range re.FindAllString(text, limit) {
			if seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// Matches reports whether any pattern of this rule matches text.
func (r *Rule) Matches(text string) bool {
	for _, re := range r.Patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Catalog holds all compiled rules, indexed by ID and stage.
type Catalog struct {
	byID    map[string]*Rule
	byStage map[Stage][]*Rule
	all     []*Rule
}

// RuleDef is the raw, uncompiled form of a rule. Used to build custom
// catalogs; the default catalog is defined in catalog.go.
type RuleDef struct {
	ID       string
	Label    string
	Stage    Stage
	Weight   float64
	Patterns []string
}

// NewCatalog compiles defs into an immutable catalog. Panics on an
// invalid regex, matching regexp.MustCompile semantics: rule tables are
// program constants and a bad pattern is a programming error.
func NewCatalog(defs []RuleDef) *Catalog {
	c := &Catalog{
		byID:    make(map[string]*Rule, len(defs)),
		byStage: make(map[Stage][]*Rule),
		all:     make([]*Rule, 0, len(defs)),
	}
	for _, d := range defs {
		r := &Rule{
			ID:       d.ID,
			Label:    d.Label,
			Stage:    d.Stage,
			Weight:   d.Weight,
			Patterns: make([]*regexp.Regexp, 0, len(d.Patterns)),
		}
		for _, p := range d.Patterns {
			r.Patterns = append(r.Patterns, regexp.MustCompile(p))
		}
		c.byID[r.ID] = r
		c.byStage[r.Stage] = append(c.byStage[r.Stage], r)
		c.all = append(c.all, r)
	}
	return c
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
)

// Default returns the shared default catalog, compiled on first use.
// The catalog is read-only and safe for concurrent use.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = NewCatalog(defaultRuleDefs)
	})
	return defaultCatalog
}

// Get returns the rule with the given ID, or nil.
func (c *Catalog) Get(id string) *Rule {
	return c.byID[id]
}

// ByStage returns all rules for a stage. Never nil.
func (c *Catalog) ByStage(s Stage) []*Rule {
	if rs, ok := c.byStage[s]; ok {
		return rs
	}
	return []*Rule{}
}

// All returns every rule in the catalog in registration order.
func (c *Catalog) All() []*Rule {
	return c.all
}

// Len returns the total rule count.
func (c *Catalog) Len() int {
	return len(c.all)
}
