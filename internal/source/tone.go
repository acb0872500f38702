// SPDX-License-Identifier: MIT
package source

import (
	"math"
	"sync"
)

// Tone is a deterministic signal source for headless runs and demos.
// It renders a fundamental with two octave partials so the spectrum
// lights more than one band, advancing phase by one window per pull.
type Tone struct {
	mu    sync.Mutex
	freq  float64
	rate  float64
	amp   float64
	index uint64
}

// Harmonic gains applied to the fundamental, 2x and 3x partials. The
// sum normalizes the peak back under amp.
var partials = [3]float64{1.0, 0.5, 0.25}

// NewTone creates a generator for a tone at freq Hz rendered at the
// given sample rate with peak amplitude amp (clamped to [0, 1]).
func NewTone(freq, rate, amp float64) *Tone {
	if amp < 0 {
		amp = 0
	} else if amp > 1 {
		amp = 1
	}
	return &Tone{
		freq: freq,
		rate: rate,
		amp:  amp,
	}
}

// Window renders the next len(dst) samples and advances the phase, so
// successive pulls form one continuous signal.
func (t *Tone) Window(dst []float64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := partials[0] + partials[1] + partials[2]
	for i := range dst {
		ts := float64(t.index+uint64(i)) / t.rate
		v := 0.0
		for h, gain := range partials {
			v += gain * math.Sin(2.0*math.Pi*t.freq*float64(h+1)*ts)
		}
		dst[i] = t.amp * v / total
	}
	t.index += uint64(len(dst))
	return len(dst)
}
