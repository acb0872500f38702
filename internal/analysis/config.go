// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"audioviz/pkg/bitint"
)

// Defaults and limits for analyzer configuration.
const (
	DefaultTransformSize = 2048
	MinTransformSize     = 32
	DefaultSmoothing     = 0.8
	DefaultSampleRate    = 44100.0
)

// Config fixes the geometry of one analyzer instance. It is immutable
// after construction: changing the transform size means building a new
// analyzer, since every internal buffer is sized from it.
type Config struct {
	// TransformSize is the spectral transform window length in samples.
	// Must be a power of 2 and at least MinTransformSize. The frequency
	// snapshot carries TransformSize/2 bins.
	TransformSize int

	// SmoothingFactor in [0,1] is the temporal smoothing constant the
	// capability applies between successive frames. 0 disables
	// smoothing, values near 1 make the spectrum very sluggish.
	SmoothingFactor float64

	// SampleRate of the source signal in Hz. Only used to map bin
	// indices to frequencies; the capability trusts it as supplied.
	SampleRate float64
}

// DefaultConfig returns the configuration used when nothing is specified:
// 2048-point transform, 0.8 smoothing, 44.1 kHz.
func DefaultConfig() Config {
	return Config{
		TransformSize:   DefaultTransformSize,
		SmoothingFactor: DefaultSmoothing,
		SampleRate:      DefaultSampleRate,
	}
}

// BinCount returns the number of frequency bins a snapshot will carry.
func (c Config) BinCount() int {
	return c.TransformSize / 2
}

// Validate checks every field and wraps violations in ErrConfig.
func (c Config) Validate() error {
	if !bitint.IsPowerOfTwo(c.TransformSize) {
		return fmt.Errorf("%w: transform size must be a power of 2, got %d", ErrConfig, c.TransformSize)
	}
	if c.TransformSize < MinTransformSize {
		return fmt.Errorf("%w: transform size must be at least %d, got %d", ErrConfig, MinTransformSize, c.TransformSize)
	}
	if c.SmoothingFactor < 0 || c.SmoothingFactor > 1 {
		return fmt.Errorf("%w: smoothing factor must be in [0,1], got %g", ErrConfig, c.SmoothingFactor)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %g", ErrConfig, c.SampleRate)
	}
	return nil
}
