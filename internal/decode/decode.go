// SPDX-License-Identifier: MIT

// Package decode turns audio files into mono float64 sample slices for
// offline analysis. Stereo material is downmixed by averaging channels
// so thumbnails reflect the whole mix.
package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat marks file extensions no decoder claims.
var ErrUnsupportedFormat = errors.New("decode: unsupported audio format")

// Clip is a decoded audio file reduced to one channel.
type Clip struct {
	Samples    []float64 // mono, normalized to [-1, 1]
	SampleRate float64   // Hz
	Channels   int       // channel count of the source before downmix
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / c.SampleRate
}

// File decodes path by extension.
func File(path string) (*Clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return WAV(path)
	case ".mp3":
		return MP3(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
