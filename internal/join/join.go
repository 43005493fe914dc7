// Package join implements the hash-buffered lookahead join over a right-hand
// record stream.
package join

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/deltahist/internal/record"
)

// Right matches left-side join keys against a right-hand stream without
// assuming either side is sorted by key. Rows pulled while seeking a key are
// parked in a pending buffer and served in constant time when their key is
// finally requested; the right stream is scanned left to right exactly once
// over the lifetime of the join.
//
// Keys are NFC-normalized before buffering and lookup, so keys that differ
// only in Unicode normalization form still match across sources.
type Right struct {
	src     record.Source
	pending map[string]record.Row
}

// NewRight wraps src. The caller retains ownership of src and closes it.
func NewRight(src record.Source) *Right {
	return &Right{src: src, pending: make(map[string]record.Row)}
}

// Take returns the right-hand row sharing key, or ok=false if the right
// stream is exhausted without producing one. Exhaustion is not an error.
//
// Right rows without a join key never enter the buffer and never match. If a
// key recurs on the right before being matched, the newest row overwrites the
// buffered one (last writer wins).
func (r *Right) Take(key string) (record.Row, bool, error) {
	key = norm.NFC.String(key)
	if row, ok := r.pending[key]; ok {
		delete(r.pending, key)
		return row, true, nil
	}
	for {
		row, ok, err := r.src.Next()
		if err != nil {
			return record.Row{}, false, err
		}
		if !ok {
			return record.Row{}, false, nil
		}
		if !row.HasJoinKey {
			continue
		}
		rowKey := norm.NFC.String(row.JoinKey)
		if rowKey == key {
			return row, true, nil
		}
		r.pending[rowKey] = row
	}
}

// Pending reports how many unmatched right rows are currently buffered.
func (r *Right) Pending() int {
	return len(r.pending)
}
