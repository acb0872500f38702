// SPDX-License-Identifier: MIT

// Package spectral implements the production spectral analysis
// capability on gonum's FFT. It acquires a signal window from a
// source, applies a tapering window, transforms, smooths magnitudes
// across frames and maps the decibel range onto unsigned bytes.
package spectral

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"audioviz/internal/analysis"
	applog "audioviz/internal/log"
)

// Decibel range rendered onto the byte scale. Magnitudes at or below
// minDB map to 0, at or above maxDB to 255.
const (
	minDB = -100.0
	maxDB = -30.0
)

// Analyser is the gonum-backed analysis.Capability. One Analyser is
// bound to one source for its whole lifetime; all methods are safe for
// concurrent use.
type Analyser struct {
	mu  sync.Mutex
	fft *fourier.FFT
	cfg analysis.Config
	src analysis.SignalSource

	win       []float64    // window coefficients, len == TransformSize
	input     []float64    // signal window workspace, len == TransformSize
	coeffs    []complex128 // transform output, len == TransformSize/2+1
	magnitude []float64    // smoothed magnitudes carried across frames

	released bool
}

var _ analysis.Capability = (*Analyser)(nil)

// FrequencyData computes one spectrum frame into dst and returns the
// number of bins written (TransformSize/2, or fewer if dst is short).
func (a *Analyser) FrequencyData(dst []byte) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return 0
	}

	a.src.Window(a.input)
	for i := range a.input {
		a.input[i] *= a.win[i]
	}
	a.fft.Coefficients(a.coeffs, a.input)

	bins := a.cfg.BinCount()
	n := bins
	if len(dst) < n {
		n = len(dst)
	}

	norm := 2.0 / float64(a.cfg.TransformSize)
	k := a.cfg.SmoothingFactor
	for i := 0; i < n; i++ {
		mag := cmplx.Abs(a.coeffs[i]) * norm
		sm := a.magnitude[i]*k + mag*(1.0-k)
		a.magnitude[i] = sm

		db := minDB
		if sm > 0 {
			db = 20.0 * math.Log10(sm)
		}
		if db < minDB {
			db = minDB
		} else if db > maxDB {
			db = maxDB
		}
		dst[i] = byte(math.Round((db - minDB) / (maxDB - minDB) * 255.0))
	}
	return n
}

// TimeDomainData copies the current signal window into dst as unsigned
// bytes with 128 at zero amplitude, returning the count written.
func (a *Analyser) TimeDomainData(dst []byte) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return 0
	}

	a.src.Window(a.input)

	n := a.cfg.TransformSize
	if len(dst) < n {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		v := a.input[i]
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		b := int(math.Round(v*128.0)) + 128
		if b < 0 {
			b = 0
		} else if b > 255 {
			b = 255
		}
		dst[i] = byte(b)
	}
	return n
}

// Release drops the capability's workspace. Safe to call more than
// once; sampling after Release yields zero counts.
func (a *Analyser) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return
	}
	a.released = true
	applog.Debugf("Spectral: released analyser (size %d)", a.cfg.TransformSize)
}

// Provider builds Analysers. The zero value uses the Hann window.
type Provider struct {
	Window WindowFunc
}

var _ analysis.Provider = (*Provider)(nil)

// NewProvider returns a Provider producing analysers with the given
// tapering window.
func NewProvider(w WindowFunc) *Provider {
	return &Provider{Window: w}
}

// Acquire builds an Analyser bound to src with the given configuration.
func (p *Provider) Acquire(src analysis.SignalSource, cfg analysis.Config) (analysis.Capability, error) {
	if src == nil {
		return nil, fmt.Errorf("spectral: nil signal source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("spectral: %w", err)
	}

	a := &Analyser{
		fft:       fourier.NewFFT(cfg.TransformSize),
		cfg:       cfg,
		src:       src,
		win:       coefficients(cfg.TransformSize, p.Window),
		input:     make([]float64, cfg.TransformSize),
		coeffs:    make([]complex128, cfg.TransformSize/2+1),
		magnitude: make([]float64, cfg.BinCount()),
	}
	applog.Debugf("Spectral: acquired analyser (size %d, window %s, rate %.0f Hz)",
		cfg.TransformSize, p.Window, cfg.SampleRate)
	return a, nil
}
