package hist

import (
	"encoding/base64"
	"testing"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsBadParameters(t *testing.T) {
	tests := []struct {
		name     string
		maxValue int64
		sigfigs  int
	}{
		{"zero max", 0, 2},
		{"max below minimum", 1, 2},
		{"sigfigs too low", 30000, 0},
		{"sigfigs too high", 30000, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.maxValue, tt.sigfigs)
			require.Error(t, err)
			assert.True(t, IsRangeError(err), "expected a RangeError, got %v", err)
		})
	}
}

func TestRecord_InRange(t *testing.T) {
	h, err := New(100, 2)
	require.NoError(t, err)

	require.NoError(t, h.Record(0))
	require.NoError(t, h.Record(100))
	assert.Equal(t, int64(2), h.TotalCount())
}

func TestRecord_OutOfRangeIsRecoverable(t *testing.T) {
	h, err := New(100, 2)
	require.NoError(t, err)

	err = h.Record(-5)
	require.Error(t, err)
	assert.True(t, IsRangeError(err))

	err = h.Record(500)
	require.Error(t, err)
	assert.True(t, IsRangeError(err))

	// Failed recordings leave the accumulator unchanged.
	assert.Equal(t, int64(0), h.TotalCount())
	require.NoError(t, h.Record(7))
	assert.Equal(t, int64(1), h.TotalCount())
}

func TestSaturatingRecord_Clamps(t *testing.T) {
	h, err := New(100, 2)
	require.NoError(t, err)

	h.SaturatingRecord(-5)
	h.SaturatingRecord(500)

	assert.Equal(t, int64(2), h.TotalCount())
	assert.Equal(t, int64(0), h.RecordedMin(), "-5 should clamp to 0")
	assert.Equal(t, int64(100), h.RecordedMax(), "500 should clamp to 100")
}

func TestSerialize_RoundTrips(t *testing.T) {
	h, err := New(30000, 2)
	require.NoError(t, err)
	require.NoError(t, h.Record(20))
	require.NoError(t, h.Record(350))

	encoded, err := h.Serialize()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err, "output must be valid standard base64")

	decoded, err := hdrhistogram.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(2), decoded.TotalCount())
}

func TestSerialize_Deterministic(t *testing.T) {
	build := func() *Hist {
		h, err := New(30000, 3)
		require.NoError(t, err)
		for _, v := range []int64{1, 5, 5, 250, 29000} {
			require.NoError(t, h.Record(v))
		}
		return h
	}

	first, err := build().Serialize()
	require.NoError(t, err)
	second, err := build().Serialize()
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical state must serialize identically")
}
