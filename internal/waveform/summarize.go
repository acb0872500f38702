// SPDX-License-Identifier: MIT
//
// Package waveform reduces fully decoded audio buffers to fixed-length
// normalized amplitude envelopes for static previews (scrubber strips,
// track thumbnails). Everything here is a pure function over the input
// buffer: no retained state, no I/O, bit-identical output for identical
// input.
package waveform

import (
	"errors"
	"fmt"
	"math"
)

// DefaultBlockCount is the envelope length used when callers have no
// opinion: 200 blocks draws well at typical preview widths.
const DefaultBlockCount = 200

// ErrEmptyInput marks a summarization request that cannot produce one
// full block: fewer samples than blocks (or a non-positive block
// count). This is a contract violation by the caller, not a recoverable
// condition — callers must guarantee at least blockCount samples.
var ErrEmptyInput = errors.New("waveform: insufficient samples")

// Summarize reduces a mono sample buffer (values in [-1,1]) to a
// blockCount-length envelope of normalized scalars in [0,1].
//
// Each envelope value is the mean absolute amplitude of one blockSize =
// floor(len/blockCount) slice of the input; trailing samples past
// blockCount*blockSize are ignored. The envelope is then normalized by
// its maximum, so any non-silent input peaks at exactly 1.0. A silent
// input stays all zero — never NaN or Inf.
func Summarize(samples []float64, blockCount int) ([]float64, error) {
	if blockCount < 1 {
		return nil, fmt.Errorf("%w: block count must be positive, got %d", ErrEmptyInput, blockCount)
	}

	blockSize := len(samples) / blockCount
	if blockSize == 0 {
		return nil, fmt.Errorf("%w: need at least %d samples, got %d", ErrEmptyInput, blockCount, len(samples))
	}

	envelope := make([]float64, blockCount)
	var peak float64
	for b := range blockCount {
		start := b * blockSize
		var sum float64
		for _, s := range samples[start : start+blockSize] {
			sum += math.Abs(s)
		}
		v := sum / float64(blockSize)
		envelope[b] = v
		if v > peak {
			peak = v
		}
	}

	if peak > 0 {
		for i := range envelope {
			envelope[i] /= peak
		}
	}
	return envelope, nil
}
