package policy

import "fmt"

// Negatives selects how a non-positive dual-stream difference is treated
// before the OOB rule applies. Single-stream mode always treats negatives as
// ordinary values (the OOB rule decides); the knob exists because joined
// measurements are usually expected to be one-sided latencies.
type Negatives int

const (
	// NegativesKeep passes negative differences to the OOB rule, the same
	// as single-stream mode.
	NegativesKeep Negatives = iota
	// NegativesSkip silently ignores differences <= 0 under the error and
	// saturate rules. Drop is unaffected: its recording window is already
	// 0 <= v < max under either setting.
	NegativesSkip
)

var negativesNames = map[string]Negatives{
	"keep": NegativesKeep,
	"skip": NegativesSkip,
}

// ParseNegatives maps a configuration string to a Negatives setting.
func ParseNegatives(s string) (Negatives, error) {
	n, ok := negativesNames[s]
	if !ok {
		return NegativesKeep, fmt.Errorf("invalid negatives setting %q: must be keep or skip", s)
	}
	return n, nil
}

func (n Negatives) String() string {
	if n == NegativesSkip {
		return "skip"
	}
	return "keep"
}

// SkipsValue reports whether v is silently ignored in dual-stream mode under
// this setting and rule r.
func (n Negatives) SkipsValue(r Rule, v int64) bool {
	return n == NegativesSkip && v <= 0 && r != RuleDrop
}
