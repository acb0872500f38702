// SPDX-License-Identifier: MIT

// Package source provides the signal sources the analysis engine pulls
// from: a rolling ring buffer fed by capture or decode, a deterministic
// tone generator, and the PortAudio input stream.
package source

import (
	"sync"
)

// Ring is a fixed-size rolling sample buffer shared between one
// producer (a capture callback or decoder loop) and the analysis path.
// Window hands out the latest samples in chronological order, so the
// producer only has to keep pushing.
type Ring struct {
	mu   sync.Mutex
	buf  []float64
	pos  int
	size int
	fill int
}

// NewRing creates a ring holding the last size samples. Sizes below 1
// are raised to 1.
func NewRing(size int) *Ring {
	if size < 1 {
		size = 1
	}
	return &Ring{
		buf:  make([]float64, size),
		size: size,
	}
}

// Push appends samples, overwriting the oldest when full.
func (r *Ring) Push(samples []float64) {
	r.mu.Lock()
	for _, s := range samples {
		r.buf[r.pos] = s
		r.pos = (r.pos + 1) % r.size
	}
	r.fill += len(samples)
	if r.fill > r.size {
		r.fill = r.size
	}
	r.mu.Unlock()
}

// Window copies the most recent len(dst) samples into dst oldest-first
// and returns how many were genuinely available. When fewer samples
// than requested have been pushed the leading part of dst stays zero.
func (r *Ring) Window(dst []float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(dst)
	if n > r.size {
		n = r.size
	}
	avail := n
	if avail > r.fill {
		avail = r.fill
	}

	pad := len(dst) - avail
	for i := 0; i < pad; i++ {
		dst[i] = 0
	}

	start := (r.pos - avail + r.size) % r.size
	for i := 0; i < avail; i++ {
		dst[pad+i] = r.buf[(start+i)%r.size]
	}
	return avail
}

// Len returns the number of samples currently held, capped at the ring
// size.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fill
}

// Size returns the ring capacity.
func (r *Ring) Size() int {
	return r.size
}
