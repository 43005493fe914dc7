// Package pipeline wires record sources, the merge join, the OOB policy and
// the histogram into one synchronous pull-based run.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/deltahist/internal/hist"
	"github.com/roach88/deltahist/internal/join"
	"github.com/roach88/deltahist/internal/policy"
	"github.com/roach88/deltahist/internal/record"
)

// Stats counts what happened to the rows of one run. Skipped covers every
// silent non-observation: absent values, keyless rows, unmatched joins, and
// non-positive differences ignored by the negatives setting.
type Stats struct {
	RowsRead int64 `json:"rows_read"`
	Matched  int64 `json:"matched,omitempty"`
	Recorded int64 `json:"recorded"`
	Dropped  int64 `json:"dropped"`
	Skipped  int64 `json:"skipped"`
}

// Result is the output of a successful run.
type Result struct {
	// Encoded is the base64 compressed serialization of the histogram.
	Encoded string
	Stats   Stats
}

// Run drives one measurement to completion and serializes the histogram.
// The first fatal error aborts the remainder of the input; no partial result
// is returned.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h, err := hist.New(cfg.MaxValue, cfg.Sigfigs)
	if err != nil {
		return nil, err
	}

	log := slog.Default().With("run", uuid.Must(uuid.NewV7()).String())

	var stats Stats
	if cfg.Dual() {
		log.Debug("starting dual-stream run",
			"input", cfg.Input, "rhs_input", cfg.RHSInput,
			"join_column", cfg.JoinColumn, "oob", cfg.OOB.String(),
			"negatives", cfg.Negatives.String())
		err = runDual(ctx, cfg, h, &stats)
	} else {
		log.Debug("starting single-stream run",
			"input", cfg.Input, "oob", cfg.OOB.String())
		err = runSingle(ctx, cfg, h, &stats)
	}
	if err != nil {
		return nil, err
	}

	encoded, err := h.Serialize()
	if err != nil {
		return nil, err
	}
	log.Debug("run complete",
		"rows_read", stats.RowsRead, "matched", stats.Matched,
		"recorded", stats.Recorded, "dropped", stats.Dropped,
		"skipped", stats.Skipped)
	return &Result{Encoded: encoded, Stats: stats}, nil
}

func runSingle(ctx context.Context, cfg Config, h *hist.Hist, stats *Stats) error {
	src, err := record.Open(cfg.Input, record.Columns{
		Primary:   cfg.LHSColumn,
		Secondary: cfg.RHSColumn,
	}, record.SourceOptions{Table: cfg.Table})
	if err != nil {
		return err
	}
	defer src.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		stats.RowsRead++
		if !row.HasPrimary || !row.HasSecondary {
			stats.Skipped++
			continue
		}
		if err := fold(h, cfg.OOB, row.Primary-row.Secondary, stats); err != nil {
			return err
		}
	}
}

func runDual(ctx context.Context, cfg Config, h *hist.Hist, stats *Stats) error {
	left, err := record.Open(cfg.Input, record.Columns{
		Primary: cfg.LHSColumn,
		Join:    cfg.JoinColumn,
	}, record.SourceOptions{Table: cfg.Table})
	if err != nil {
		return err
	}
	defer left.Close()

	rightSrc, err := record.Open(cfg.RHSInput, record.Columns{
		Primary: cfg.RHSColumn,
		Join:    cfg.JoinColumn,
	}, record.SourceOptions{Table: cfg.Table})
	if err != nil {
		return err
	}
	defer rightSrc.Close()
	right := join.NewRight(rightSrc)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, ok, err := left.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		stats.RowsRead++
		if !row.HasJoinKey {
			stats.Skipped++
			continue
		}
		match, ok, err := right.Take(row.JoinKey)
		if err != nil {
			return err
		}
		if !ok {
			// No right row for this key, ever.
			stats.Skipped++
			continue
		}
		stats.Matched++
		if !row.HasPrimary || !match.HasPrimary {
			stats.Skipped++
			continue
		}
		v := row.Primary - match.Primary
		if cfg.Negatives.SkipsValue(cfg.OOB, v) {
			stats.Skipped++
			continue
		}
		if err := fold(h, cfg.OOB, v, stats); err != nil {
			return err
		}
	}
}

func fold(h *hist.Hist, rule policy.Rule, v int64, stats *Stats) error {
	outcome, err := policy.Apply(h, rule, v)
	if err != nil {
		return err
	}
	if outcome == policy.Recorded {
		stats.Recorded++
	} else {
		stats.Dropped++
	}
	return nil
}
