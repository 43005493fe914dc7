package pipeline

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deltahist/internal/hist"
	"github.com/roach88/deltahist/internal/policy"
	"github.com/roach88/deltahist/internal/record"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decodeHistogram(t *testing.T, encoded string) *hdrhistogram.Histogram {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	h, err := hdrhistogram.Decode(raw)
	require.NoError(t, err)
	return h
}

func singleConfig(input string) Config {
	return Config{
		Input:     input,
		LHSColumn: "lhs",
		RHSColumn: "rhs",
		MaxValue:  DefaultMaxValue,
		Sigfigs:   DefaultSigfigs,
	}
}

func TestRun_SingleStreamDrop(t *testing.T) {
	// (120-100)=20 recorded; (80-100)=-20 dropped.
	input := writeCSV(t, "in.csv", "lhs,rhs\n120,100\n80,100\n")
	cfg := singleConfig(input)
	cfg.OOB = policy.RuleDrop

	result, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, Stats{RowsRead: 2, Recorded: 1, Dropped: 1}, result.Stats)
	h := decodeHistogram(t, result.Encoded)
	assert.Equal(t, int64(1), h.TotalCount())
	assert.Equal(t, int64(20), h.Max())
}

func TestRun_SingleStreamErrorAborts(t *testing.T) {
	input := writeCSV(t, "in.csv", "lhs,rhs\n80,100\n")
	cfg := singleConfig(input)
	cfg.OOB = policy.RuleError

	result, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, hist.IsRangeError(err))
	assert.Nil(t, result, "no partial output on fatal failure")
}

func TestRun_SingleStreamSkipsMissingValues(t *testing.T) {
	input := writeCSV(t, "in.csv", "lhs,rhs\n120,\n,100\n50,40\n")
	cfg := singleConfig(input)

	result, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, Stats{RowsRead: 3, Recorded: 1, Skipped: 2}, result.Stats)
}

func TestRun_ParseErrorAborts(t *testing.T) {
	input := writeCSV(t, "in.csv", "lhs,rhs\nslow,100\n")

	result, err := Run(context.Background(), singleConfig(input))
	require.Error(t, err)
	assert.True(t, record.IsParseError(err))
	assert.Nil(t, result)
}

func TestRun_ConfigRequiresJoinColumnWithSecondInput(t *testing.T) {
	input := writeCSV(t, "in.csv", "lhs,rhs\n1,2\n")

	cfg := singleConfig(input)
	cfg.RHSInput = input
	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	cfg = singleConfig(input)
	cfg.JoinColumn = "id"
	_, err = Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func dualConfig(left, right string) Config {
	return Config{
		Input:      left,
		LHSColumn:  "v",
		RHSColumn:  "v",
		MaxValue:   DefaultMaxValue,
		Sigfigs:    DefaultSigfigs,
		RHSInput:   right,
		JoinColumn: "join",
	}
}

func TestRun_DualStreamSaturateOutOfOrder(t *testing.T) {
	// Right delivers B then A; both keys must match regardless of order.
	left := writeCSV(t, "left.csv", "join,v\nA,50\nB,70\n")
	right := writeCSV(t, "right.csv", "join,v\nB,60\nA,40\n")
	cfg := dualConfig(left, right)
	cfg.OOB = policy.RuleSaturate

	result, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, Stats{RowsRead: 2, Matched: 2, Recorded: 2}, result.Stats)
	h := decodeHistogram(t, result.Encoded)
	assert.Equal(t, int64(2), h.TotalCount())
	assert.Equal(t, int64(10), h.Max(), "both deltas are 10")
	assert.Equal(t, int64(10), h.Min())
}

func TestRun_DualStreamEveryKeyMatchedOnce(t *testing.T) {
	left := writeCSV(t, "left.csv", "join,v\na,10\nb,20\nc,30\n")
	right := writeCSV(t, "right.csv", "join,v\nc,3\na,1\nb,2\n")

	result, err := Run(context.Background(), dualConfig(left, right))
	require.NoError(t, err)
	assert.Equal(t, Stats{RowsRead: 3, Matched: 3, Recorded: 3}, result.Stats)
}

func TestRun_DualStreamUnmatchedAndKeylessSkipped(t *testing.T) {
	left := writeCSV(t, "left.csv", "join,v\na,10\n,99\nzzz,5\n")
	right := writeCSV(t, "right.csv", "join,v\na,1\n")

	result, err := Run(context.Background(), dualConfig(left, right))
	require.NoError(t, err)
	assert.Equal(t, Stats{RowsRead: 3, Matched: 1, Recorded: 1, Skipped: 2}, result.Stats)
}

func TestRun_DualStreamNegatives(t *testing.T) {
	left := writeCSV(t, "left.csv", "join,v\na,40\n")
	right := writeCSV(t, "right.csv", "join,v\na,50\n")

	t.Run("keep fails under the error rule", func(t *testing.T) {
		cfg := dualConfig(left, right)
		cfg.Negatives = policy.NegativesKeep

		_, err := Run(context.Background(), cfg)
		require.Error(t, err)
		assert.True(t, hist.IsRangeError(err))
	})

	t.Run("skip ignores the pair silently", func(t *testing.T) {
		cfg := dualConfig(left, right)
		cfg.Negatives = policy.NegativesSkip

		result, err := Run(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, Stats{RowsRead: 1, Matched: 1, Skipped: 1}, result.Stats)
	})

	t.Run("keep clamps under saturate", func(t *testing.T) {
		cfg := dualConfig(left, right)
		cfg.OOB = policy.RuleSaturate

		result, err := Run(context.Background(), cfg)
		require.NoError(t, err)
		h := decodeHistogram(t, result.Encoded)
		assert.Equal(t, int64(1), h.TotalCount())
		assert.Equal(t, int64(0), h.Max(), "-10 clamps to 0")
	})
}

func TestRun_Idempotent(t *testing.T) {
	left := writeCSV(t, "left.csv", "join,v\nA,50\nB,70\n")
	right := writeCSV(t, "right.csv", "join,v\nB,60\nA,40\n")
	cfg := dualConfig(left, right)
	cfg.OOB = policy.RuleSaturate

	first, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, first.Encoded, second.Encoded,
		"identical inputs and configuration must serialize identically")
}

func TestRun_Cancelled(t *testing.T) {
	input := writeCSV(t, "in.csv", "lhs,rhs\n120,100\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, singleConfig(input))
	assert.ErrorIs(t, err, context.Canceled)
}
