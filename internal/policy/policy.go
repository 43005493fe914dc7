// Package policy decides how a computed difference is folded into the
// histogram: record it, clamp it, drop it, or fail the run.
package policy

import (
	"fmt"

	"github.com/roach88/deltahist/internal/hist"
)

// Rule is the out-of-bounds disposition for a difference outside the
// histogram's representable range. Exactly one rule applies per run.
type Rule int

const (
	// RuleError treats any out-of-range difference (including a negative
	// one) as fatal.
	RuleError Rule = iota
	// RuleDrop silently discards differences outside [0, max).
	RuleDrop
	// RuleSaturate clamps differences to the nearest representable bound.
	RuleSaturate
)

var ruleNames = map[string]Rule{
	"error":    RuleError,
	"drop":     RuleDrop,
	"saturate": RuleSaturate,
}

// ParseRule maps a configuration string to a Rule.
func ParseRule(s string) (Rule, error) {
	r, ok := ruleNames[s]
	if !ok {
		return RuleError, fmt.Errorf("invalid oob rule %q: must be one of error, drop, saturate", s)
	}
	return r, nil
}

func (r Rule) String() string {
	switch r {
	case RuleError:
		return "error"
	case RuleDrop:
		return "drop"
	case RuleSaturate:
		return "saturate"
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// Outcome reports what Apply did with a value.
type Outcome int

const (
	// Recorded means the value (possibly clamped) entered the histogram.
	Recorded Outcome = iota
	// Dropped means the value was silently discarded.
	Dropped
)

// Apply folds difference v into h under rule r.
//
// RuleError delegates the range check to the accumulator and returns its
// recoverable *hist.RangeError unchanged; the caller decides that it is
// fatal. RuleDrop records only when 0 <= v < max. RuleSaturate never fails.
func Apply(h *hist.Hist, r Rule, v int64) (Outcome, error) {
	switch r {
	case RuleDrop:
		if v >= 0 && v < h.Max() {
			if err := h.Record(v); err != nil {
				return Dropped, err
			}
			return Recorded, nil
		}
		return Dropped, nil
	case RuleSaturate:
		h.SaturatingRecord(v)
		return Recorded, nil
	default:
		if err := h.Record(v); err != nil {
			return Dropped, err
		}
		return Recorded, nil
	}
}
