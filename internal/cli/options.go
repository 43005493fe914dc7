package cli

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/roach88/deltahist/internal/pipeline"
	"github.com/roach88/deltahist/internal/policy"
	"github.com/roach88/deltahist/internal/record"
)

// Options holds the raw user-supplied settings, before validation. The yaml
// tags let a --config file supply any subset; explicit flags win over file
// values.
type Options struct {
	Input      string `yaml:"input"`
	LHSColumn  string `yaml:"lhs_column"`
	RHSColumn  string `yaml:"rhs_column"`
	MaxValue   int64  `yaml:"max_value"`
	Sigfigs    int    `yaml:"sigfigs"`
	RHSInput   string `yaml:"rhs_input"`
	JoinColumn string `yaml:"join_column"`
	OOB        string `yaml:"oob"`
	Negatives  string `yaml:"negatives"`
	Table      string `yaml:"table"`
}

// NewOptions returns options populated with defaults.
func NewOptions() *Options {
	return &Options{
		MaxValue:  pipeline.DefaultMaxValue,
		Sigfigs:   pipeline.DefaultSigfigs,
		OOB:       policy.RuleError.String(),
		Negatives: policy.NegativesKeep.String(),
		Table:     record.DefaultTable,
	}
}

// flagFields maps each Options field to the flag that overrides it.
var flagFields = []struct {
	flag string
	set  func(dst, src *Options)
}{
	{"input", func(d, s *Options) { d.Input = s.Input }},
	{"lhs-column", func(d, s *Options) { d.LHSColumn = s.LHSColumn }},
	{"rhs-column", func(d, s *Options) { d.RHSColumn = s.RHSColumn }},
	{"max-value", func(d, s *Options) { d.MaxValue = s.MaxValue }},
	{"sigfigs", func(d, s *Options) { d.Sigfigs = s.Sigfigs }},
	{"rhs-input", func(d, s *Options) { d.RHSInput = s.RHSInput }},
	{"join-column", func(d, s *Options) { d.JoinColumn = s.JoinColumn }},
	{"oob", func(d, s *Options) { d.OOB = s.OOB }},
	{"negatives", func(d, s *Options) { d.Negatives = s.Negatives }},
	{"table", func(d, s *Options) { d.Table = s.Table }},
}

// MergeConfigFile loads a YAML options file and fills in every setting whose
// flag was not set explicitly on the command line.
func (o *Options) MergeConfigFile(path string, flags *pflag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read config file: %w", err)
	}
	fromFile := NewOptions()
	if err := yaml.Unmarshal(data, fromFile); err != nil {
		return fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	for _, f := range flagFields {
		if !flags.Changed(f.flag) {
			f.set(o, fromFile)
		}
	}
	return nil
}

// Config validates the options and produces the immutable run configuration.
func (o *Options) Config() (pipeline.Config, error) {
	rule, err := policy.ParseRule(o.OOB)
	if err != nil {
		return pipeline.Config{}, err
	}
	negatives, err := policy.ParseNegatives(o.Negatives)
	if err != nil {
		return pipeline.Config{}, err
	}
	cfg := pipeline.Config{
		Input:      o.Input,
		LHSColumn:  o.LHSColumn,
		RHSColumn:  o.RHSColumn,
		MaxValue:   o.MaxValue,
		Sigfigs:    o.Sigfigs,
		RHSInput:   o.RHSInput,
		JoinColumn: o.JoinColumn,
		OOB:        rule,
		Negatives:  negatives,
		Table:      o.Table,
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return cfg, nil
}
