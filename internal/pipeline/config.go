package pipeline

import (
	"errors"
	"fmt"

	"github.com/roach88/deltahist/internal/policy"
)

// Default histogram parameters.
const (
	DefaultMaxValue = 30000
	DefaultSigfigs  = 2
)

// Config is the validated, immutable input to one run. Constructed once at
// startup, read-only thereafter.
type Config struct {
	// Input locates the primary (left) record source.
	Input string
	// LHSColumn and RHSColumn name the minuend and subtrahend columns. In
	// dual-stream mode LHSColumn is resolved against the left source and
	// RHSColumn against the right source.
	LHSColumn string
	RHSColumn string

	// MaxValue is the inclusive upper bound of the histogram's
	// representable range; Sigfigs its significant decimal digits.
	MaxValue int64
	Sigfigs  int

	// RHSInput and JoinColumn enable dual-stream mode. Both or neither
	// must be set.
	RHSInput   string
	JoinColumn string

	// OOB governs differences outside the representable range.
	OOB policy.Rule
	// Negatives governs non-positive differences in dual-stream mode.
	Negatives policy.Negatives

	// Table names the table streamed from SQLite locations.
	Table string
}

// ConfigError reports an invalid configuration, detected before any row is
// read.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// IsConfigError reports whether err is (or wraps) a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Dual reports whether the run joins two streams.
func (c *Config) Dual() bool {
	return c.RHSInput != ""
}

// Validate checks cross-field constraints. Histogram parameter validation is
// left to the accumulator so the two cannot drift apart.
func (c *Config) Validate() error {
	if c.Input == "" {
		return &ConfigError{Message: "input location is required"}
	}
	if c.LHSColumn == "" || c.RHSColumn == "" {
		return &ConfigError{Message: "both lhs and rhs column names are required"}
	}
	if c.RHSInput != "" && c.JoinColumn == "" {
		return &ConfigError{Message: "join column not supplied"}
	}
	if c.RHSInput == "" && c.JoinColumn != "" {
		return &ConfigError{Message: fmt.Sprintf("join column %q supplied without a second input", c.JoinColumn)}
	}
	return nil
}
