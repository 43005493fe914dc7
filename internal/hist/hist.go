// Package hist wraps the HdrHistogram accumulator behind the narrow contract
// the pipeline depends on: bounded-range recording, saturating recording, and
// deterministic serialization.
package hist

import (
	"encoding/base64"
	"errors"
	"fmt"

	hdrhistogram "github.com/HdrHistogram/hdrhistogram-go"
)

// MaxSigfigs is the highest precision the underlying library supports.
const MaxSigfigs = 5

// RangeError reports invalid histogram parameters or a value outside the
// representable range. Whether a recording failure is fatal is the caller's
// decision, not this package's.
type RangeError struct {
	Message string
}

func (e *RangeError) Error() string {
	return e.Message
}

// IsRangeError reports whether err is (or wraps) a *RangeError.
func IsRangeError(err error) bool {
	var re *RangeError
	return errors.As(err, &re)
}

// Hist accumulates non-negative integer values in [0, Max] with a fixed
// number of significant decimal digits of relative precision.
type Hist struct {
	h   *hdrhistogram.Histogram
	max int64
}

// New creates an accumulator for values in [0, maxValue]. sigfigs must lie in
// [1, MaxSigfigs] and maxValue must be at least 2; anything else is a
// *RangeError. The range and precision are fixed for the accumulator's
// lifetime.
func New(maxValue int64, sigfigs int) (*Hist, error) {
	if sigfigs < 1 || sigfigs > MaxSigfigs {
		return nil, &RangeError{Message: fmt.Sprintf("sigfigs must be between 1 and %d, got %d", MaxSigfigs, sigfigs)}
	}
	if maxValue < 2 {
		return nil, &RangeError{Message: fmt.Sprintf("max value must be at least 2, got %d", maxValue)}
	}
	return &Hist{h: hdrhistogram.New(1, maxValue, sigfigs), max: maxValue}, nil
}

// Max returns the inclusive upper bound of the representable range.
func (h *Hist) Max() int64 {
	return h.max
}

// Record adds v to the distribution. Values outside [0, Max] fail with a
// *RangeError and leave the accumulator unchanged.
func (h *Hist) Record(v int64) error {
	if err := h.h.RecordValue(v); err != nil {
		return &RangeError{Message: fmt.Sprintf("could not record %d: %v", v, err)}
	}
	return nil
}

// SaturatingRecord adds v clamped to [0, Max]. Never fails.
func (h *Hist) SaturatingRecord(v int64) {
	if v < 0 {
		v = 0
	} else if v > h.max {
		v = h.max
	}
	// In range by construction; RecordValue cannot fail here.
	_ = h.h.RecordValue(v)
}

// TotalCount returns the number of recorded values.
func (h *Hist) TotalCount() int64 {
	return h.h.TotalCount()
}

// RecordedMin returns the lowest equivalent value recorded so far, or 0 when
// the accumulator is empty.
func (h *Hist) RecordedMin() int64 {
	return h.h.Min()
}

// RecordedMax returns the highest equivalent value recorded so far, or 0 when
// the accumulator is empty.
func (h *Hist) RecordedMax() int64 {
	return h.h.Max()
}

// Serialize produces the standard compressed interchange encoding of the
// accumulated state as a single base64 line. The encoding is a pure function
// of the recorded values, so identical runs serialize identically.
func (h *Hist) Serialize() (string, error) {
	buf, err := h.h.Encode(hdrhistogram.V2CompressedEncodingCookieBase)
	if err != nil {
		return "", fmt.Errorf("encode histogram: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
